// Package command contém as operações de escrita (CQRS - Commands).
//
// Todo comando segue o mesmo roteiro: valida localmente, chama a API e, se a
// chamada deu certo, recarrega os dados afetados. O resultado da recarga é o
// que a tela mostra; a resposta da mutação nunca é usada como estado final.
package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/roster"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// RosterSource fornece o retrato de matrícula e o recarrega depois de mutações.
// Implementado por query.RosterView.
type RosterSource interface {
	Current(ctx context.Context) (*roster.Roster, error)
	Reload(ctx context.Context) (*roster.Roster, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL / UNENROLL COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// EnrollStudentCommand matricula um aluno em uma turma.
type EnrollStudentCommand struct {
	ClassID   string
	StudentID string
}

// Validate valida o comando.
func (c EnrollStudentCommand) Validate() error {
	if shared.NormalizeID(c.ClassID) == "" {
		return shared.NewDomainError("roster", "Enroll", shared.ErrEmptyValue, "turma é obrigatória")
	}
	if shared.NormalizeID(c.StudentID) == "" {
		return shared.NewDomainError("roster", "Enroll", shared.ErrEmptyValue, "aluno é obrigatório")
	}
	return nil
}

// UnenrollStudentCommand remove um aluno de uma turma.
type UnenrollStudentCommand struct {
	ClassID   string
	StudentID string
}

// Validate valida o comando.
func (c UnenrollStudentCommand) Validate() error {
	return EnrollStudentCommand(c).Validate()
}

// RosterChangeResult é o resultado de uma matrícula ou remoção.
type RosterChangeResult struct {
	// Class - turma como devolvida pela mutação.
	Class classroom.Class

	// Roster - retrato recarregado depois da mutação. Nil se a recarga falhou.
	Roster *roster.Roster

	// ReloadErr - a mutação valeu, mas a recarga falhou e a tela pode estar velha.
	ReloadErr error

	Events []shared.Event
}

// RosterHandler atende os comandos de matrícula.
type RosterHandler struct {
	classes   classroom.Repository
	source    RosterSource
	publisher shared.EventPublisher
	logger    *slog.Logger
}

// NewRosterHandler cria o handler.
func NewRosterHandler(
	classes classroom.Repository,
	source RosterSource,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *RosterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterHandler{classes: classes, source: source, publisher: publisher, logger: logger}
}

// Enroll verifica a regra de matrícula no retrato atual, chama a API e
// recarrega alunos e turmas.
func (h *RosterHandler) Enroll(ctx context.Context, cmd EnrollStudentCommand) (*RosterChangeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	classID, studentID := shared.NormalizeID(cmd.ClassID), shared.NormalizeID(cmd.StudentID)

	current, err := h.source.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("enroll: load roster: %w", err)
	}
	if err := current.CheckEnroll(classID, studentID); err != nil {
		return nil, err
	}

	updated, err := h.classes.AddStudent(ctx, classID, studentID)
	if err != nil {
		h.resync(ctx, err)
		return nil, err
	}

	event := shared.NewStudentEnrolledEvent(classID, studentID)
	result := h.finish(ctx, updated, event)
	h.logger.Info("student enrolled", "class_id", classID, "student_id", studentID)
	return result, nil
}

// Unenroll remove o aluno da turma e recarrega alunos e turmas.
func (h *RosterHandler) Unenroll(ctx context.Context, cmd UnenrollStudentCommand) (*RosterChangeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	classID, studentID := shared.NormalizeID(cmd.ClassID), shared.NormalizeID(cmd.StudentID)

	current, err := h.source.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("unenroll: load roster: %w", err)
	}
	if _, err := current.Unenroll(classID, studentID); err != nil {
		return nil, err
	}

	updated, err := h.classes.RemoveStudent(ctx, classID, studentID)
	if err != nil {
		h.resync(ctx, err)
		return nil, err
	}

	event := shared.NewStudentUnenrolledEvent(classID, studentID)
	result := h.finish(ctx, updated, event)
	h.logger.Info("student unenrolled", "class_id", classID, "student_id", studentID)
	return result, nil
}

func (h *RosterHandler) finish(ctx context.Context, updated *classroom.Class, event shared.Event) *RosterChangeResult {
	result := &RosterChangeResult{Events: []shared.Event{event}}
	if updated != nil {
		result.Class = *updated
	}

	fresh, err := h.source.Reload(ctx)
	if err != nil {
		h.logger.Warn("reload after enrollment change failed", "error", err)
		result.ReloadErr = err
	} else {
		result.Roster = fresh
		if c, cerr := fresh.Class(result.Class.ID); cerr == nil {
			result.Class = c
		}
	}

	publish(h.publisher, h.logger, event)
	return result
}

// resync recarrega depois de uma mutação recusada, para que a próxima
// verificação local use o estado do servidor.
func (h *RosterHandler) resync(ctx context.Context, cause error) {
	if shared.IsSessionExpired(cause) || ctx.Err() != nil {
		return
	}
	if _, err := h.source.Reload(ctx); err != nil {
		h.logger.Debug("resync after failed enrollment failed", "error", err)
	}
}

func publish(p shared.EventPublisher, logger *slog.Logger, events ...shared.Event) {
	if p == nil {
		return
	}
	for _, e := range events {
		if err := p.Publish(e); err != nil {
			logger.Error("failed to publish event", "event", e.EventType(), "error", err)
		}
	}
}
