package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/roster"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLASS COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateClassCommand altera campos de uma turma.
type UpdateClassCommand struct {
	ID          string
	Name        *string
	Grade       *string
	Description *string
}

// ClassResult é o resultado de um comando de turma.
type ClassResult struct {
	Class     classroom.Class
	Roster    *roster.Roster
	ReloadErr error
}

// ClassHandler atende os comandos de turma.
type ClassHandler struct {
	classes   classroom.Repository
	source    RosterSource
	validator *validation.Validator
	logger    *slog.Logger
}

// NewClassHandler cria o handler.
func NewClassHandler(classes classroom.Repository, source RosterSource, v *validation.Validator, logger *slog.Logger) *ClassHandler {
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassHandler{classes: classes, source: source, validator: v, logger: logger}
}

// Create cadastra uma turma.
func (h *ClassHandler) Create(ctx context.Context, form validation.ClassForm) (*ClassResult, error) {
	if err := h.validator.Struct(form); err != nil {
		return nil, err
	}
	created, err := h.classes.Create(ctx, form.Draft())
	if err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	h.logger.Info("class created", "class_id", created.ID)
	return h.reload(ctx, *created), nil
}

// Update valida a turma resultante e envia só os campos alterados.
func (h *ClassHandler) Update(ctx context.Context, cmd UpdateClassCommand) (*ClassResult, error) {
	if shared.NormalizeID(cmd.ID) == "" {
		return nil, shared.NewDomainError("classroom", "Update", shared.ErrEmptyValue, "turma é obrigatória")
	}
	changes := classroom.Changes{Name: cmd.Name, Description: cmd.Description}
	if cmd.Grade != nil {
		g, err := shared.ParseGrade(*cmd.Grade)
		if err != nil {
			return nil, err
		}
		changes.Grade = &g
	}
	if changes.IsEmpty() {
		return nil, shared.NewDomainError("classroom", "Update", shared.ErrEmptyValue, "nenhuma alteração informada")
	}

	current, err := h.classes.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("update class: %w", err)
	}
	draft := classroom.Draft{Name: current.Name, Grade: current.Grade, Description: current.Description}
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		changes.Name = &name
		draft.Name = name
	}
	if changes.Grade != nil {
		draft.Grade = *changes.Grade
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	updated, err := h.classes.Update(ctx, cmd.ID, changes)
	if err != nil {
		return nil, fmt.Errorf("update class: %w", err)
	}
	return h.reload(ctx, *updated), nil
}

// Delete remove a turma.
func (h *ClassHandler) Delete(ctx context.Context, id string) (*ClassResult, error) {
	if shared.NormalizeID(id) == "" {
		return nil, shared.NewDomainError("classroom", "Delete", shared.ErrEmptyValue, "turma é obrigatória")
	}
	if err := h.classes.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete class: %w", err)
	}
	h.logger.Info("class deleted", "class_id", id)
	return h.reload(ctx, classroom.Class{ID: id}), nil
}

func (h *ClassHandler) reload(ctx context.Context, c classroom.Class) *ClassResult {
	result := &ClassResult{Class: c}
	if h.source == nil {
		return result
	}
	fresh, err := h.source.Reload(ctx)
	if err != nil {
		h.logger.Warn("reload after class change failed", "error", err)
		result.ReloadErr = err
		return result
	}
	result.Roster = fresh
	if reloaded, err := fresh.Class(c.ID); err == nil {
		result.Class = reloaded
	}
	return result
}
