package query

import (
	"context"
	"log/slog"

	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Números do painel inicial.
// ══════════════════════════════════════════════════════════════════════════════

// DashboardDTO é o painel inicial.
type DashboardDTO struct {
	User          user.User
	TotalStudents int
	TotalClasses  int

	// TotalEnrolled - soma dos rosters das turmas.
	TotalEnrolled int

	// Unassigned - alunos sem turma.
	Unassigned int

	// Divergences - alunos com matrícula inconsistente entre as duas fontes.
	Divergences int

	Degraded bool
}

// UserSource fornece o usuário logado.
type UserSource interface {
	User() (user.User, bool)
}

// GetDashboardHandler monta o painel.
type GetDashboardHandler struct {
	view   *RosterView
	users  UserSource
	logger *slog.Logger
}

// NewGetDashboardHandler cria o handler.
func NewGetDashboardHandler(view *RosterView, users UserSource, logger *slog.Logger) *GetDashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetDashboardHandler{view: view, users: users, logger: logger}
}

// Handle executa a consulta.
func (h *GetDashboardHandler) Handle(ctx context.Context) (*DashboardDTO, error) {
	out := &DashboardDTO{}
	if h.users != nil {
		out.User, _ = h.users.User()
	}

	r, err := h.view.Reload(ctx)
	if err != nil {
		if degraded(h.logger, "dashboard", err) {
			out.Degraded = true
			return out, nil
		}
		return nil, err
	}

	out.TotalStudents = len(r.Students())
	out.TotalClasses = len(r.Classes())
	out.TotalEnrolled = classroom.TotalEnrolled(r.Classes())
	out.Unassigned = len(r.Unassigned())
	out.Divergences = len(r.Divergences())
	return out, nil
}
