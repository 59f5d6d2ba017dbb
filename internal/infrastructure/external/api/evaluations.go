package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// EvaluationsAPI implements evaluation.Repository over the /evaluations endpoints.
type EvaluationsAPI struct {
	c *Client
}

var _ evaluation.Repository = (*EvaluationsAPI)(nil)

// Evaluations carry a "class" field of their own, so that key is never
// treated as an envelope here.
var evaluationKeys = []string{"data", "evaluation"}

func escapedID(id string) string {
	return url.PathEscape(shared.NormalizeID(id))
}

// ListByStudent fetches the evaluation history of a student.
func (e *EvaluationsAPI) ListByStudent(ctx context.Context, studentID string) ([]evaluation.Evaluation, error) {
	path := "/evaluations/student/" + escapedID(studentID)
	dtos, err := call[[]EvaluationDTO](ctx, e.c, http.MethodGet, "/evaluations/student/{id}", path, nil, "data", "evaluations")
	if err != nil {
		return nil, fmt.Errorf("list evaluations of student %s: %w", studentID, err)
	}
	return e.c.mapper.EvaluationsFromDTOs(dtos), nil
}

// ListByClass fetches all evaluations recorded for a class.
func (e *EvaluationsAPI) ListByClass(ctx context.Context, classID string) ([]evaluation.Evaluation, error) {
	path := "/evaluations/class/" + escapedID(classID)
	dtos, err := call[[]EvaluationDTO](ctx, e.c, http.MethodGet, "/evaluations/class/{id}", path, nil, "data", "evaluations")
	if err != nil {
		return nil, fmt.Errorf("list evaluations of class %s: %w", classID, err)
	}
	return e.c.mapper.EvaluationsFromDTOs(dtos), nil
}

// GetByID fetches a single evaluation.
func (e *EvaluationsAPI) GetByID(ctx context.Context, id string) (*evaluation.Evaluation, error) {
	dto, err := call[EvaluationDTO](ctx, e.c, http.MethodGet, "/evaluations/{id}", "/evaluations/"+escapedID(id), nil, evaluationKeys...)
	if err != nil {
		return nil, fmt.Errorf("get evaluation %s: %w", id, err)
	}
	return e.c.mapper.EvaluationFromDTO(&dto)
}

// Create records an evaluation. Scores are validated before any request.
func (e *EvaluationsAPI) Create(ctx context.Context, draft evaluation.Draft) (*evaluation.Evaluation, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	body := e.c.mapper.EvaluationPayloadFromDraft(draft)
	dto, err := call[EvaluationDTO](ctx, e.c, http.MethodPost, "/evaluations", "/evaluations", body, evaluationKeys...)
	if err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	return e.c.mapper.EvaluationFromDTO(&dto)
}

// Update sends a partial update.
func (e *EvaluationsAPI) Update(ctx context.Context, id string, changes evaluation.Changes) (*evaluation.Evaluation, error) {
	for c, v := range changes.Scores {
		if !c.IsValid() {
			return nil, shared.ErrInvalidCriterion
		}
		if !shared.IsValidScore(v) {
			return nil, shared.ErrInvalidScore
		}
	}
	body := e.c.mapper.EvaluationPayloadFromChanges(changes)
	dto, err := call[EvaluationDTO](ctx, e.c, http.MethodPut, "/evaluations/{id}", "/evaluations/"+escapedID(id), body, evaluationKeys...)
	if err != nil {
		return nil, fmt.Errorf("update evaluation %s: %w", id, err)
	}
	return e.c.mapper.EvaluationFromDTO(&dto)
}

// Delete removes an evaluation.
func (e *EvaluationsAPI) Delete(ctx context.Context, id string) error {
	if _, err := e.c.doRequest(ctx, http.MethodDelete, "/evaluations/{id}", "/evaluations/"+escapedID(id), nil); err != nil {
		return fmt.Errorf("delete evaluation %s: %w", id, err)
	}
	return nil
}

// ProgressByStudent fetches the server-computed progress of a student.
func (e *EvaluationsAPI) ProgressByStudent(ctx context.Context, studentID string) (evaluation.ProgressReport, error) {
	path := "/evaluations/progress/student/" + escapedID(studentID)
	dto, err := call[ProgressResponseDTO](ctx, e.c, http.MethodGet, "/evaluations/progress/student/{id}", path, nil, "data")
	if err != nil {
		return evaluation.ProgressReport{}, fmt.Errorf("student progress %s: %w", studentID, err)
	}
	return e.c.mapper.ProgressFromDTO(evaluation.ScopeStudent, &dto)
}

// ProgressByClass fetches the server-computed progress of a class.
func (e *EvaluationsAPI) ProgressByClass(ctx context.Context, classID string) (evaluation.ProgressReport, error) {
	path := "/evaluations/progress/class/" + escapedID(classID)
	dto, err := call[ProgressResponseDTO](ctx, e.c, http.MethodGet, "/evaluations/progress/class/{id}", path, nil, "data")
	if err != nil {
		return evaluation.ProgressReport{}, fmt.Errorf("class progress %s: %w", classID, err)
	}
	return e.c.mapper.ProgressFromDTO(evaluation.ScopeClass, &dto)
}
