// Package query contém as operações de leitura (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/edfisica/pe-assessment-hub/internal/application/state"
	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/roster"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER VIEW
// Retrato de alunos e turmas usado pelas telas e pelos comandos de matrícula.
// Toda mutação termina com Reload: o servidor é a fonte da verdade.
// ══════════════════════════════════════════════════════════════════════════════

// RosterView carrega alunos e turmas juntos e guarda o retrato mais recente.
type RosterView struct {
	students student.Repository
	classes  classroom.Repository
	loader   *state.Loader[*roster.Roster]
	logger   *slog.Logger
}

// NewRosterView cria um RosterView.
func NewRosterView(students student.Repository, classes classroom.Repository, logger *slog.Logger) *RosterView {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterView{
		students: students,
		classes:  classes,
		loader:   state.NewLoader[*roster.Roster](),
		logger:   logger,
	}
}

// Reload busca as duas listas em paralelo e substitui o retrato.
// Uma carga anterior ainda em andamento é cancelada.
func (v *RosterView) Reload(ctx context.Context) (*roster.Roster, error) {
	return v.loader.Load(ctx, func(ctx context.Context) (*roster.Roster, error) {
		var (
			students []student.Student
			classes  []classroom.Class
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			students, err = v.students.List(gctx, student.ListFilter{})
			if err != nil {
				return fmt.Errorf("list students: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			classes, err = v.classes.List(gctx)
			if err != nil {
				return fmt.Errorf("list classes: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		r := roster.New(students, classes)
		if !r.Consistent() {
			v.logger.Warn("enrollment sources disagree", "divergences", len(r.Divergences()))
		}
		return r, nil
	})
}

// Current devolve o último retrato, carregando-o se ainda não existe.
func (v *RosterView) Current(ctx context.Context) (*roster.Roster, error) {
	if r, ok := v.loader.Value(); ok {
		return r, nil
	}
	return v.Reload(ctx)
}

// Close descarta cargas em andamento.
func (v *RosterView) Close() {
	v.loader.Close()
}

// degraded retorna true para falhas de rede, que viram leitura vazia com
// um registro no log. Sessão expirada e demais erros seguem adiante.
func degraded(logger *slog.Logger, op string, err error) bool {
	if shared.IsNetwork(err) && !shared.IsSessionExpired(err) {
		logger.Warn("read failed, showing empty state", "op", op, "error", err)
		return true
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST CLASSES QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListClassesQuery pede as turmas com seus alunos.
type ListClassesQuery struct {
	// ClassID - se informado, inclui os alunos disponíveis para esta turma.
	ClassID string

	// Grade - se informada, restringe os alunos disponíveis a esta série.
	Grade shared.Grade
}

// ClassDTO é uma turma com os alunos resolvidos.
type ClassDTO struct {
	Class     classroom.Class
	Members   []student.Student
	Available []student.Student
}

// ListClassesResult é o resultado da listagem.
type ListClassesResult struct {
	Classes []ClassDTO

	// Divergences - alunos cujas duas fontes de matrícula discordam.
	Divergences []roster.Divergence

	// Degraded - a API estava inacessível e a lista veio vazia.
	Degraded bool
}

// ListClassesHandler atende ListClassesQuery.
type ListClassesHandler struct {
	view   *RosterView
	logger *slog.Logger
}

// NewListClassesHandler cria o handler.
func NewListClassesHandler(view *RosterView, logger *slog.Logger) *ListClassesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListClassesHandler{view: view, logger: logger}
}

// Handle executa a consulta.
func (h *ListClassesHandler) Handle(ctx context.Context, q ListClassesQuery) (*ListClassesResult, error) {
	r, err := h.view.Reload(ctx)
	if err != nil {
		if degraded(h.logger, "list_classes", err) {
			return &ListClassesResult{Degraded: true}, nil
		}
		return nil, err
	}

	selected := shared.NormalizeID(q.ClassID)
	out := &ListClassesResult{
		Classes:     make([]ClassDTO, 0, len(r.Classes())),
		Divergences: r.Divergences(),
	}
	for _, c := range r.Classes() {
		if selected != "" && !shared.SameID(c.ID, selected) {
			continue
		}
		dto := ClassDTO{Class: c, Members: r.Members(c.ID)}
		if selected != "" {
			c := c
			dto.Available = roster.FilterByGrade(roster.AvailableStudents(r.Students(), r.Classes(), &c), q.Grade)
		}
		out.Classes = append(out.Classes, dto)
	}
	if selected != "" && len(out.Classes) == 0 {
		return nil, shared.ErrClassNotFound
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST STUDENTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListStudentsQuery pede os alunos, opcionalmente de uma turma.
type ListStudentsQuery struct {
	ClassID string
}

// StudentDTO é um aluno com o nome da turma resolvido.
type StudentDTO struct {
	Student   student.Student
	ClassName string
}

// ListStudentsResult é o resultado da listagem.
type ListStudentsResult struct {
	Students []StudentDTO
	Degraded bool
}

// ListStudentsHandler atende ListStudentsQuery.
type ListStudentsHandler struct {
	view   *RosterView
	logger *slog.Logger
}

// NewListStudentsHandler cria o handler.
func NewListStudentsHandler(view *RosterView, logger *slog.Logger) *ListStudentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListStudentsHandler{view: view, logger: logger}
}

// Handle executa a consulta. O nome da turma vem do roster das turmas e,
// na falta dele, do ClassID do aluno.
func (h *ListStudentsHandler) Handle(ctx context.Context, q ListStudentsQuery) (*ListStudentsResult, error) {
	r, err := h.view.Reload(ctx)
	if err != nil {
		if degraded(h.logger, "list_students", err) {
			return &ListStudentsResult{Degraded: true}, nil
		}
		return nil, err
	}

	students := r.Students()
	if id := shared.NormalizeID(q.ClassID); id != "" {
		if _, err := r.Class(id); err != nil {
			return nil, err
		}
		students = r.Members(id)
	}

	out := &ListStudentsResult{Students: make([]StudentDTO, 0, len(students))}
	for _, s := range students {
		out.Students = append(out.Students, StudentDTO{Student: s, ClassName: r.ClassNameOf(s.ID)})
	}
	return out, nil
}
