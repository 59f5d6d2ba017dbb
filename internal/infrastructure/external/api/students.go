package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// StudentsAPI implements student.Repository over the /students endpoints.
type StudentsAPI struct {
	c *Client
}

var _ student.Repository = (*StudentsAPI)(nil)

var studentKeys = []string{"data", "student"}

// List fetches the students visible to the current user.
func (s *StudentsAPI) List(ctx context.Context, filter student.ListFilter) ([]student.Student, error) {
	path := "/students"
	if id := shared.NormalizeID(filter.ClassID); id != "" {
		params := url.Values{}
		params.Set("classId", id)
		path += "?" + params.Encode()
	}

	dtos, err := call[[]StudentDTO](ctx, s.c, http.MethodGet, "/students", path, nil, "data", "students")
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return s.c.mapper.StudentsFromDTOs(dtos), nil
}

// GetByID fetches a single student.
func (s *StudentsAPI) GetByID(ctx context.Context, id string) (*student.Student, error) {
	path := "/students/" + url.PathEscape(shared.NormalizeID(id))
	dto, err := call[StudentDTO](ctx, s.c, http.MethodGet, "/students/{id}", path, nil, studentKeys...)
	if err != nil {
		return nil, fmt.Errorf("get student %s: %w", id, err)
	}
	return s.c.mapper.StudentFromDTO(&dto)
}

// Create registers a student. The draft is validated before any request.
func (s *StudentsAPI) Create(ctx context.Context, draft student.Draft) (*student.Student, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	body := s.c.mapper.StudentPayloadFromDraft(draft)
	dto, err := call[StudentDTO](ctx, s.c, http.MethodPost, "/students", "/students", body, studentKeys...)
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return s.c.mapper.StudentFromDTO(&dto)
}

// Update sends a partial update.
func (s *StudentsAPI) Update(ctx context.Context, id string, changes student.Changes) (*student.Student, error) {
	if changes.ClassID != nil {
		if cid := shared.NormalizeID(*changes.ClassID); cid != "" && !shared.IsObjectID(cid) {
			return nil, shared.NewDomainError("student", "Update", shared.ErrInvalidID, "ID da turma inválido")
		}
	}
	path := "/students/" + url.PathEscape(shared.NormalizeID(id))
	body := s.c.mapper.StudentPayloadFromChanges(changes)
	dto, err := call[StudentDTO](ctx, s.c, http.MethodPut, "/students/{id}", path, body, studentKeys...)
	if err != nil {
		return nil, fmt.Errorf("update student %s: %w", id, err)
	}
	return s.c.mapper.StudentFromDTO(&dto)
}

// Delete removes a student.
func (s *StudentsAPI) Delete(ctx context.Context, id string) error {
	path := "/students/" + url.PathEscape(shared.NormalizeID(id))
	if _, err := s.c.doRequest(ctx, http.MethodDelete, "/students/{id}", path, nil); err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	return nil
}
