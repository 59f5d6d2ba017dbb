package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/pkg/fanout"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION STATUS QUERY
// Quem já foi avaliado e quem está pendente. As avaliações são buscadas por
// aluno, em paralelo; a falha de um aluno aparece na linha dele e não
// interrompe os demais.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultStatusConcurrency limita as buscas simultâneas por aluno.
const DefaultStatusConcurrency = 6

// EvaluationStatusQuery escolhe os alunos. Sem turma, todos os alunos.
type EvaluationStatusQuery struct {
	ClassID     string
	Concurrency int
}

// StudentStatus é a linha de um aluno.
type StudentStatus struct {
	Student   student.Student
	ClassName string
	Count     int
	Latest    time.Time
	Evaluated bool

	// Err - falha ao buscar as avaliações deste aluno.
	Err error
}

// Pending retorna true para aluno sem avaliação e sem falha.
func (s StudentStatus) Pending() bool {
	return !s.Evaluated && s.Err == nil
}

// EvaluationStatusDTO é o resultado.
type EvaluationStatusDTO struct {
	Rows      []StudentStatus
	Evaluated int
	Pending   int
	Failed    int
	Degraded  bool
}

// EvaluationStatusHandler atende EvaluationStatusQuery.
type EvaluationStatusHandler struct {
	view        *RosterView
	evaluations evaluation.Repository
	logger      *slog.Logger
}

// NewEvaluationStatusHandler cria o handler.
func NewEvaluationStatusHandler(view *RosterView, evaluations evaluation.Repository, logger *slog.Logger) *EvaluationStatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationStatusHandler{view: view, evaluations: evaluations, logger: logger}
}

// Handle executa a consulta.
func (h *EvaluationStatusHandler) Handle(ctx context.Context, q EvaluationStatusQuery) (*EvaluationStatusDTO, error) {
	r, err := h.view.Reload(ctx)
	if err != nil {
		if degraded(h.logger, "evaluation_status", err) {
			return &EvaluationStatusDTO{Degraded: true}, nil
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
	if q.Concurrency <= 0 {
		q.Concurrency = DefaultStatusConcurrency
	}

	results := fanout.Map(ctx, students, q.Concurrency,
		func(s student.Student) string { return s.ID },
		func(ctx context.Context, s student.Student) ([]evaluation.Evaluation, error) {
			return h.evaluations.ListByStudent(ctx, s.ID)
		})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &EvaluationStatusDTO{Rows: make([]StudentStatus, 0, len(students))}
	for i, res := range results {
		row := StudentStatus{Student: students[i], ClassName: r.ClassNameOf(students[i].ID)}
		switch {
		case res.Err != nil:
			if shared.IsSessionExpired(res.Err) {
				return nil, res.Err
			}
			row.Err = res.Err
			out.Failed++
			h.logger.Warn("failed to load evaluations", "student_id", res.Key, "error", res.Err)
		case len(res.Value) > 0:
			latest, _ := evaluation.Latest(res.Value)
			row.Count = len(res.Value)
			row.Latest = latest.Date
			row.Evaluated = true
			out.Evaluated++
		default:
			out.Pending++
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
