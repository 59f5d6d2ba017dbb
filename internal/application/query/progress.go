package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Relatório de evolução de um aluno ou de uma turma. Por padrão a agregação é
// feita aqui a partir das avaliações; FromServer usa os números da API.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery identifica o alvo do relatório. Exatamente um dos IDs.
type GetProgressQuery struct {
	StudentID  string
	ClassID    string
	FromServer bool
}

// Validate verifica o alvo.
func (q GetProgressQuery) Validate() error {
	s, c := shared.NormalizeID(q.StudentID), shared.NormalizeID(q.ClassID)
	if (s == "") == (c == "") {
		return shared.NewDomainError("progress", "Validate", shared.ErrInvalidInput, "informe um aluno ou uma turma")
	}
	return nil
}

// Scope devolve o escopo do relatório.
func (q GetProgressQuery) Scope() evaluation.Scope {
	if shared.NormalizeID(q.StudentID) != "" {
		return evaluation.ScopeStudent
	}
	return evaluation.ScopeClass
}

// ProgressDTO é o relatório com as avaliações usadas.
type ProgressDTO struct {
	Report      evaluation.ProgressReport
	Evaluations []evaluation.Evaluation
	Degraded    bool
}

// GetProgressHandler atende GetProgressQuery.
type GetProgressHandler struct {
	evaluations evaluation.Repository
	logger      *slog.Logger
}

// NewGetProgressHandler cria o handler.
func NewGetProgressHandler(evaluations evaluation.Repository, logger *slog.Logger) *GetProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetProgressHandler{evaluations: evaluations, logger: logger}
}

// Handle executa a consulta.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*ProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	out, err := h.load(ctx, q)
	if err != nil {
		if degraded(h.logger, "progress", err) {
			return &ProgressDTO{Report: evaluation.NewReport(q.Scope(), nil), Degraded: true}, nil
		}
		return nil, fmt.Errorf("progress: %w", err)
	}
	return out, nil
}

func (h *GetProgressHandler) load(ctx context.Context, q GetProgressQuery) (*ProgressDTO, error) {
	studentID := shared.NormalizeID(q.StudentID)
	classID := shared.NormalizeID(q.ClassID)

	if q.FromServer {
		var (
			report evaluation.ProgressReport
			err    error
		)
		if studentID != "" {
			report, err = h.evaluations.ProgressByStudent(ctx, studentID)
		} else {
			report, err = h.evaluations.ProgressByClass(ctx, classID)
		}
		if err != nil {
			return nil, err
		}
		return &ProgressDTO{Report: report}, nil
	}

	if studentID != "" {
		evals, err := h.evaluations.ListByStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		return &ProgressDTO{Report: evaluation.AggregateByStudent(evals), Evaluations: evals}, nil
	}

	evals, err := h.evaluations.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	return &ProgressDTO{Report: evaluation.AggregateByClass(evals), Evaluations: evals}, nil
}
