package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/roster"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateStudentCommand altera campos de um aluno. Campos nil ficam como estão.
type UpdateStudentCommand struct {
	ID           string
	Name         *string
	Age          *int
	Grade        *string
	ClassID      *string
	Observations *string
}

// StudentResult é o resultado de um comando de aluno.
type StudentResult struct {
	Student   student.Student
	Roster    *roster.Roster
	ReloadErr error
}

// StudentHandler atende os comandos de aluno.
type StudentHandler struct {
	students  student.Repository
	source    RosterSource
	validator *validation.Validator
	logger    *slog.Logger
}

// NewStudentHandler cria o handler.
func NewStudentHandler(students student.Repository, source RosterSource, v *validation.Validator, logger *slog.Logger) *StudentHandler {
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StudentHandler{students: students, source: source, validator: v, logger: logger}
}

// Create cadastra um aluno.
func (h *StudentHandler) Create(ctx context.Context, form validation.StudentForm) (*StudentResult, error) {
	if err := h.validator.Struct(form); err != nil {
		return nil, err
	}
	draft := form.Draft()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	created, err := h.students.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	h.logger.Info("student created", "student_id", created.ID)
	return h.reload(ctx, *created), nil
}

// Update aplica as alterações sobre o cadastro atual e valida o resultado
// antes de enviar.
func (h *StudentHandler) Update(ctx context.Context, cmd UpdateStudentCommand) (*StudentResult, error) {
	changes, err := toStudentChanges(cmd)
	if err != nil {
		return nil, err
	}
	if changes.IsEmpty() {
		return nil, shared.NewDomainError("student", "Update", shared.ErrEmptyValue, "nenhuma alteração informada")
	}

	current, err := h.students.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	next := changes.Apply(*current)
	draft := student.Draft{
		Name:         next.Name,
		Age:          next.Age,
		Grade:        next.Grade,
		ClassID:      next.ClassID,
		Observations: next.Observations,
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	updated, err := h.students.Update(ctx, cmd.ID, changes)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	return h.reload(ctx, *updated), nil
}

// UpdateObservations grava apenas as observações do aluno.
func (h *StudentHandler) UpdateObservations(ctx context.Context, id, text string) (*StudentResult, error) {
	if shared.NormalizeID(id) == "" {
		return nil, shared.NewDomainError("student", "Observe", shared.ErrEmptyValue, "aluno é obrigatório")
	}
	updated, err := h.students.Update(ctx, id, student.ObservationsChange(text))
	if err != nil {
		return nil, fmt.Errorf("update observations: %w", err)
	}
	return h.reload(ctx, *updated), nil
}

// Delete remove o aluno.
func (h *StudentHandler) Delete(ctx context.Context, id string) (*StudentResult, error) {
	if shared.NormalizeID(id) == "" {
		return nil, shared.NewDomainError("student", "Delete", shared.ErrEmptyValue, "aluno é obrigatório")
	}
	if err := h.students.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete student: %w", err)
	}
	h.logger.Info("student deleted", "student_id", id)
	return h.reload(ctx, student.Student{ID: id}), nil
}

func (h *StudentHandler) reload(ctx context.Context, s student.Student) *StudentResult {
	result := &StudentResult{Student: s}
	if h.source == nil {
		return result
	}
	fresh, err := h.source.Reload(ctx)
	if err != nil {
		h.logger.Warn("reload after student change failed", "error", err)
		result.ReloadErr = err
		return result
	}
	result.Roster = fresh
	if reloaded, err := fresh.Student(s.ID); err == nil {
		result.Student = reloaded
	}
	return result
}

func toStudentChanges(cmd UpdateStudentCommand) (student.Changes, error) {
	if shared.NormalizeID(cmd.ID) == "" {
		return student.Changes{}, shared.NewDomainError("student", "Update", shared.ErrEmptyValue, "aluno é obrigatório")
	}
	changes := student.Changes{
		Name:         cmd.Name,
		Age:          cmd.Age,
		ClassID:      cmd.ClassID,
		Observations: cmd.Observations,
	}
	if cmd.Grade != nil {
		g, err := shared.ParseGrade(*cmd.Grade)
		if err != nil {
			return student.Changes{}, err
		}
		changes.Grade = &g
	}
	return changes, nil
}
