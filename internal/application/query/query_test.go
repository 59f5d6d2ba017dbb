package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/application/fakeapi"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/roster"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
	"github.com/edfisica/pe-assessment-hub/pkg/logger"
)

var start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type school struct {
	api                  *fakeapi.API
	view                 *RosterView
	classA, classB       string
	ana, bia, caio, davi string
}

// newSchool seeds two classes. Caio is listed by 5B but carries no classId;
// Davi has no class at all.
func newSchool() *school {
	api := fakeapi.New(start)
	s := &school{api: api, view: NewRosterView(api.Students(), api.Classes(), logger.Discard())}
	s.classA = api.SeedClass("5A", shared.Grade5)
	s.classB = api.SeedClass("5B", shared.Grade5)
	s.ana = api.SeedStudent("Ana", s.classA)
	s.bia = api.SeedStudent("Bia", s.classB)
	s.caio = api.SeedStudent("Caio", s.classB)
	s.davi = api.SeedStudent("Davi", "")
	api.DetachClassID(s.caio)
	return s
}

var outage = shared.WrapError("api", "/students", shared.ErrNetwork, "falha de conexão com o servidor", errors.New("connection refused"))

type staticUser struct{ u user.User }

func (s staticUser) User() (user.User, bool) { return s.u, s.u.ID != "" }

func names(students []student.Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.Name)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER VIEW
// ══════════════════════════════════════════════════════════════════════════════

func TestRosterView_CurrentLoadsOnce(t *testing.T) {
	s := newSchool()
	ctx := context.Background()

	first, err := s.view.Current(ctx)
	require.NoError(t, err)
	second, err := s.view.Current(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, s.api.Count(fakeapi.OpListStudents))
	assert.Equal(t, 1, s.api.Count(fakeapi.OpListClasses))

	_, err = s.view.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.api.Count(fakeapi.OpListClasses))
}

func TestRosterView_ReloadFailsWhenEitherListFails(t *testing.T) {
	s := newSchool()
	s.api.FailOn(fakeapi.OpListStudents, outage)

	_, err := s.view.Reload(context.Background())
	assert.ErrorIs(t, err, shared.ErrNetwork)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST CLASSES / STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

func TestListClasses(t *testing.T) {
	s := newSchool()
	h := NewListClassesHandler(s.view, logger.Discard())
	ctx := context.Background()

	all, err := h.Handle(ctx, ListClassesQuery{})
	require.NoError(t, err)
	require.Len(t, all.Classes, 2)
	assert.Equal(t, []string{"Ana"}, names(all.Classes[0].Members))
	assert.Equal(t, []string{"Bia", "Caio"}, names(all.Classes[1].Members))
	assert.Nil(t, all.Classes[0].Available)
	require.Len(t, all.Divergences, 1)
	assert.Equal(t, s.caio, all.Divergences[0].StudentID)

	one, err := h.Handle(ctx, ListClassesQuery{ClassID: s.classA})
	require.NoError(t, err)
	require.Len(t, one.Classes, 1)
	// Caio is listed by 5B even though his classId is empty.
	assert.Equal(t, []string{"Davi"}, names(one.Classes[0].Available))

	s.api.SetGrade(s.davi, shared.Grade6)
	sixth, err := h.Handle(ctx, ListClassesQuery{ClassID: s.classA, Grade: shared.Grade6})
	require.NoError(t, err)
	assert.Equal(t, []string{"Davi"}, names(sixth.Classes[0].Available))
	fifth, err := h.Handle(ctx, ListClassesQuery{ClassID: s.classA, Grade: shared.Grade5})
	require.NoError(t, err)
	assert.Empty(t, fifth.Classes[0].Available)

	_, err = h.Handle(ctx, ListClassesQuery{ClassID: "ffffffffffffffffffffffff"})
	assert.True(t, shared.IsNotFound(err))
}

func TestListStudents_ClassNames(t *testing.T) {
	s := newSchool()
	h := NewListStudentsHandler(s.view, logger.Discard())

	result, err := h.Handle(context.Background(), ListStudentsQuery{})
	require.NoError(t, err)
	require.Len(t, result.Students, 4)

	got := map[string]string{}
	for _, dto := range result.Students {
		got[dto.Student.Name] = dto.ClassName
	}
	assert.Equal(t, map[string]string{
		"Ana":  "5A",
		"Bia":  "5B",
		"Caio": "5B",
		"Davi": roster.NoClassLabel,
	}, got)

	inB, err := h.Handle(context.Background(), ListStudentsQuery{ClassID: s.classB})
	require.NoError(t, err)
	assert.Len(t, inB.Students, 2)
}

func TestReads_DegradeOnNetworkErrors(t *testing.T) {
	s := newSchool()
	s.api.FailOn(fakeapi.OpListClasses, outage)
	ctx := context.Background()

	classes, err := NewListClassesHandler(s.view, logger.Discard()).Handle(ctx, ListClassesQuery{})
	require.NoError(t, err)
	assert.True(t, classes.Degraded)
	assert.Empty(t, classes.Classes)

	students, err := NewListStudentsHandler(s.view, logger.Discard()).Handle(ctx, ListStudentsQuery{})
	require.NoError(t, err)
	assert.True(t, students.Degraded)

	status, err := NewEvaluationStatusHandler(s.view, s.api.EvaluationsRepo(), logger.Discard()).
		Handle(ctx, EvaluationStatusQuery{})
	require.NoError(t, err)
	assert.True(t, status.Degraded)
}

func TestReads_SessionExpiryIsNotDegraded(t *testing.T) {
	s := newSchool()
	expired := shared.NewDomainError("api", "/classes", shared.ErrSessionExpired, "Token inválido")
	s.api.FailOn(fakeapi.OpListClasses, expired)

	_, err := NewListClassesHandler(s.view, logger.Discard()).Handle(context.Background(), ListClassesQuery{})
	assert.True(t, shared.IsSessionExpired(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

func TestDashboard(t *testing.T) {
	s := newSchool()
	me := user.User{ID: "u1", Name: "Prof. Lia", Role: user.RoleProfessor}
	h := NewGetDashboardHandler(s.view, staticUser{me}, logger.Discard())

	dash, err := h.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, me, dash.User)
	assert.Equal(t, 4, dash.TotalStudents)
	assert.Equal(t, 2, dash.TotalClasses)
	assert.Equal(t, 3, dash.TotalEnrolled)
	assert.Equal(t, 1, dash.Unassigned)
	assert.Equal(t, 1, dash.Divergences)
	assert.False(t, dash.Degraded)

	s.api.FailOn(fakeapi.OpListStudents, outage)
	dash, err = h.Handle(context.Background())
	require.NoError(t, err)
	assert.True(t, dash.Degraded)
	assert.Equal(t, me, dash.User)
	assert.Zero(t, dash.TotalStudents)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

func TestProgress_Validate(t *testing.T) {
	h := NewGetProgressHandler(fakeapi.New(start).EvaluationsRepo(), logger.Discard())

	_, err := h.Handle(context.Background(), GetProgressQuery{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = h.Handle(context.Background(), GetProgressQuery{StudentID: "a", ClassID: "b"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestProgress_LocalAndServer(t *testing.T) {
	s := newSchool()
	s.api.SeedEvaluation(s.ana, s.classA, start.AddDate(0, 0, 1), evaluation.Scores{evaluation.Speed: 2, evaluation.Balance: 3})
	s.api.SeedEvaluation(s.ana, s.classA, start.AddDate(0, 0, 8), evaluation.Scores{evaluation.Speed: 4})
	h := NewGetProgressHandler(s.api.EvaluationsRepo(), logger.Discard())
	ctx := context.Background()

	local, err := h.Handle(ctx, GetProgressQuery{StudentID: s.ana})
	require.NoError(t, err)
	require.Len(t, local.Evaluations, 2)
	assert.Equal(t, evaluation.ScopeStudent, local.Report.Scope)
	speed, ok := local.Report.Stats(evaluation.Speed)
	require.True(t, ok)
	assert.InDelta(t, 3.0, speed.Average, 1e-9)
	assert.Equal(t, 4.0, speed.Latest)
	assert.Equal(t, 1, s.api.Count(fakeapi.OpListByStudent))

	server, err := h.Handle(ctx, GetProgressQuery{ClassID: s.classA, FromServer: true})
	require.NoError(t, err)
	assert.Equal(t, evaluation.ScopeClass, server.Report.Scope)
	assert.True(t, server.Report.HasData())
	assert.Nil(t, server.Evaluations)
	assert.Equal(t, 1, s.api.Count(fakeapi.OpProgressByClass))
}

func TestProgress_DegradedIsEmptyReport(t *testing.T) {
	s := newSchool()
	s.api.FailOn(fakeapi.OpListByClass, outage)
	h := NewGetProgressHandler(s.api.EvaluationsRepo(), logger.Discard())

	dto, err := h.Handle(context.Background(), GetProgressQuery{ClassID: s.classA})
	require.NoError(t, err)
	assert.True(t, dto.Degraded)
	assert.False(t, dto.Report.HasData())
	assert.Equal(t, evaluation.ScopeClass, dto.Report.Scope)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION STATUS
// ══════════════════════════════════════════════════════════════════════════════

func TestEvaluationStatus_PerStudentFailureStaysOnItsRow(t *testing.T) {
	s := newSchool()
	s.api.SeedEvaluation(s.bia, s.classB, start.AddDate(0, 0, 2), evaluation.DefaultScores())
	s.api.SeedEvaluation(s.bia, s.classB, start.AddDate(0, 0, 9), evaluation.DefaultScores())
	s.api.FailStudent(s.caio, outage)
	h := NewEvaluationStatusHandler(s.view, s.api.EvaluationsRepo(), logger.Discard())

	dto, err := h.Handle(context.Background(), EvaluationStatusQuery{ClassID: s.classB, Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, dto.Rows, 2)

	bia, caio := dto.Rows[0], dto.Rows[1]
	assert.Equal(t, "Bia", bia.Student.Name)
	assert.True(t, bia.Evaluated)
	assert.Equal(t, 2, bia.Count)
	assert.Equal(t, start.AddDate(0, 0, 9), bia.Latest)
	assert.Equal(t, "5B", bia.ClassName)

	assert.ErrorIs(t, caio.Err, shared.ErrNetwork)
	assert.False(t, caio.Pending())
	assert.Equal(t, 1, dto.Evaluated)
	assert.Equal(t, 1, dto.Failed)
	assert.Zero(t, dto.Pending)

	all, err := h.Handle(context.Background(), EvaluationStatusQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Rows, 4)
	assert.Equal(t, 2, all.Pending)
}

func TestEvaluationStatus_SessionExpiryAborts(t *testing.T) {
	s := newSchool()
	s.api.FailStudent(s.ana, shared.NewDomainError("api", "/evaluations", shared.ErrSessionExpired, "Token inválido"))
	h := NewEvaluationStatusHandler(s.view, s.api.EvaluationsRepo(), logger.Discard())

	_, err := h.Handle(context.Background(), EvaluationStatusQuery{})
	assert.True(t, shared.IsSessionExpired(err))
}

func TestEvaluationStatus_Cancelled(t *testing.T) {
	s := newSchool()
	h := NewEvaluationStatusHandler(s.view, s.api.EvaluationsRepo(), logger.Discard())
	_, err := s.view.Current(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Handle(ctx, EvaluationStatusQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}
