package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/pkg/fanout"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBatchConcurrency limita as criações simultâneas na avaliação de turma.
const DefaultBatchConcurrency = 4

// EvaluationResult é o resultado da avaliação de um aluno.
type EvaluationResult struct {
	Evaluation evaluation.Evaluation

	// History - avaliações do aluno recarregadas depois da criação.
	History   []evaluation.Evaluation
	ReloadErr error
}

// EvaluateClassCommand avalia os alunos de uma turma.
// Forms é indexado pelo ID do aluno; alunos sem formulário ficam de fora.
type EvaluateClassCommand struct {
	ClassID     string
	Forms       map[string]validation.EvaluationForm
	Concurrency int
}

// BatchItem é o desfecho de um aluno na avaliação de turma.
type BatchItem struct {
	Student    student.Student
	Evaluation *evaluation.Evaluation
	Skipped    bool
	Err        error
}

// BatchResult é o resultado da avaliação de turma.
type BatchResult struct {
	Items   []BatchItem
	Created int
	Failed  int
	Skipped int
}

// HasFailures retorna true se algum aluno falhou.
func (r *BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// EvaluationHandler atende os comandos de avaliação.
type EvaluationHandler struct {
	evaluations evaluation.Repository
	source      RosterSource
	validator   *validation.Validator
	publisher   shared.EventPublisher
	logger      *slog.Logger
}

// NewEvaluationHandler cria o handler.
func NewEvaluationHandler(
	evaluations evaluation.Repository,
	source RosterSource,
	v *validation.Validator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *EvaluationHandler {
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationHandler{evaluations: evaluations, source: source, validator: v, publisher: publisher, logger: logger}
}

// Evaluate cria a avaliação de um aluno e recarrega o histórico dele.
func (h *EvaluationHandler) Evaluate(ctx context.Context, form validation.EvaluationForm) (*EvaluationResult, error) {
	draft, err := h.validate(form)
	if err != nil {
		return nil, err
	}

	created, err := h.evaluations.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}
	publish(h.publisher, h.logger, shared.NewEvaluationRecordedEvent(created.ID, created.StudentID, created.ClassID))

	result := &EvaluationResult{Evaluation: *created}
	history, err := h.evaluations.ListByStudent(ctx, draft.StudentID)
	if err != nil {
		h.logger.Warn("reload after evaluation failed", "student_id", draft.StudentID, "error", err)
		result.ReloadErr = err
		return result, nil
	}
	result.History = evaluation.SortByDate(history)
	return result, nil
}

func (h *EvaluationHandler) validate(form validation.EvaluationForm) (evaluation.Draft, error) {
	if err := h.validator.Struct(form); err != nil {
		return evaluation.Draft{}, err
	}
	draft := form.Draft()
	if err := draft.Validate(); err != nil {
		return evaluation.Draft{}, err
	}
	return draft, nil
}

// EvaluateClass avalia cada aluno matriculado que tem formulário.
// Todos os formulários são validados antes da primeira requisição. As
// criações correm em paralelo e a falha de um aluno não impede os outros.
func (h *EvaluationHandler) EvaluateClass(ctx context.Context, cmd EvaluateClassCommand) (*BatchResult, error) {
	classID := shared.NormalizeID(cmd.ClassID)
	if classID == "" {
		return nil, shared.NewDomainError("evaluation", "EvaluateClass", shared.ErrEmptyValue, "selecione uma turma")
	}

	r, err := h.source.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate class: load roster: %w", err)
	}
	if _, err := r.Class(classID); err != nil {
		return nil, err
	}
	members := r.Members(classID)
	if len(members) == 0 {
		return nil, shared.NewDomainError("evaluation", "EvaluateClass", shared.ErrPolicyViolation, "nenhum aluno nesta turma")
	}

	drafts := make(map[string]evaluation.Draft, len(cmd.Forms))
	var toCreate []student.Student
	for _, s := range members {
		form, ok := cmd.Forms[shared.NormalizeID(s.ID)]
		if !ok {
			continue
		}
		form.StudentID = s.ID
		form.ClassID = classID
		draft, err := h.validate(form)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		drafts[shared.NormalizeID(s.ID)] = draft
		toCreate = append(toCreate, s)
	}

	if cmd.Concurrency <= 0 {
		cmd.Concurrency = DefaultBatchConcurrency
	}
	results := fanout.Map(ctx, toCreate, cmd.Concurrency,
		func(s student.Student) string { return shared.NormalizeID(s.ID) },
		func(ctx context.Context, s student.Student) (*evaluation.Evaluation, error) {
			return h.evaluations.Create(ctx, drafts[shared.NormalizeID(s.ID)])
		})
	byStudent := make(map[string]fanout.Result[*evaluation.Evaluation], len(results))
	for _, res := range results {
		byStudent[res.Key] = res
	}

	out := &BatchResult{Items: make([]BatchItem, 0, len(members))}
	for _, s := range members {
		res, ok := byStudent[shared.NormalizeID(s.ID)]
		item := BatchItem{Student: s}
		switch {
		case !ok:
			item.Skipped = true
			out.Skipped++
		case res.Err != nil:
			item.Err = res.Err
			out.Failed++
			h.logger.Warn("evaluation failed", "student_id", s.ID, "error", res.Err)
		default:
			item.Evaluation = res.Value
			out.Created++
			publish(h.publisher, h.logger, shared.NewEvaluationRecordedEvent(res.Value.ID, s.ID, classID))
		}
		out.Items = append(out.Items, item)
	}

	h.logger.Info("class evaluated", "class_id", classID,
		"created", out.Created, "failed", out.Failed, "skipped", out.Skipped)
	return out, nil
}
