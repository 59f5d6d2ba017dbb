package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/application/fakeapi"
	"github.com/edfisica/pe-assessment-hub/internal/application/query"
	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/roster"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/pkg/logger"
)

var start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recorder) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(t shared.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.EventType() == t {
			n++
		}
	}
	return n
}

type fixture struct {
	api  *fakeapi.API
	view *query.RosterView
	pub  *recorder
}

func newFixture() *fixture {
	api := fakeapi.New(start)
	return &fixture{
		api:  api,
		view: query.NewRosterView(api.Students(), api.Classes(), logger.Discard()),
		pub:  &recorder{},
	}
}

func (f *fixture) rosterHandler() *RosterHandler {
	return NewRosterHandler(f.api.Classes(), f.view, f.pub, logger.Discard())
}

// bothSourcesAgree checks that the class roster and the student's classId tell
// the same story.
func bothSourcesAgree(t *testing.T, r *roster.Roster) {
	t.Helper()
	assert.True(t, roster.MembershipFromClasses(r.Classes()).Equal(roster.MembershipFromStudents(r.Students())))
	assert.Empty(t, r.Divergences())
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER
// ══════════════════════════════════════════════════════════════════════════════

func TestEnroll_ReloadsAndBothSourcesAgree(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	classA := f.api.SeedClass("5A", shared.Grade5)
	classB := f.api.SeedClass("5B", shared.Grade5)
	joao := f.api.SeedStudent("João", "")
	f.api.SeedStudent("Maria", classB)

	result, err := f.rosterHandler().Enroll(ctx, EnrollStudentCommand{ClassID: classA, StudentID: joao})
	require.NoError(t, err)
	require.NoError(t, result.ReloadErr)
	require.NotNil(t, result.Roster)

	assert.True(t, result.Class.Has(joao))
	s, err := result.Roster.Student(joao)
	require.NoError(t, err)
	assert.Equal(t, classA, s.ClassID)
	bothSourcesAgree(t, result.Roster)

	// The list shown afterwards comes from a fresh load, not the mutation reply.
	assert.Equal(t, 2, f.api.Count(fakeapi.OpListClasses))
	assert.Equal(t, 1, f.pub.count(shared.EventStudentEnrolled))

	result, err = f.rosterHandler().Unenroll(ctx, UnenrollStudentCommand{ClassID: classA, StudentID: joao})
	require.NoError(t, err)
	assert.False(t, result.Class.Has(joao))
	s, _ = result.Roster.Student(joao)
	assert.Empty(t, s.ClassID)
	bothSourcesAgree(t, result.Roster)
	assert.Equal(t, 1, f.pub.count(shared.EventStudentUnenrolled))
}

func TestEnroll_PolicyViolationsNeverReachTheAPI(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	classA := f.api.SeedClass("5A", shared.Grade5)
	classB := f.api.SeedClass("5B", shared.Grade5)
	inA := f.api.SeedStudent("Ana", classA)
	inB := f.api.SeedStudent("Bia", classB)
	listedOnly := f.api.SeedStudent("Caio", classB)
	f.api.DetachClassID(listedOnly)

	cases := []struct {
		name    string
		student string
		want    error
	}{
		{"already in class", inA, shared.ErrAlreadyInClass},
		{"classId points elsewhere", inB, shared.ErrEnrolledElsewhere},
		{"listed by another class only", listedOnly, shared.ErrEnrolledElsewhere},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.rosterHandler().Enroll(ctx, EnrollStudentCommand{ClassID: classA, StudentID: tc.student})
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, shared.IsPolicyViolation(err))
			assert.False(t, shared.IsNetwork(err))
		})
	}
	assert.Zero(t, f.api.Count(fakeapi.OpAddStudent))

	_, err := f.rosterHandler().Unenroll(ctx, UnenrollStudentCommand{ClassID: classA, StudentID: inB})
	assert.ErrorIs(t, err, shared.ErrNotInClass)
	assert.Zero(t, f.api.Count(fakeapi.OpRemoveStudent))
}

func TestEnroll_ServerRejectionResyncs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	classA := f.api.SeedClass("5A", shared.Grade5)
	joao := f.api.SeedStudent("João", "")

	refused := shared.NewDomainError("api", "AddStudent", shared.ErrPolicyViolation, "Aluno já está matriculado em outra turma")
	f.api.FailOn(fakeapi.OpAddStudent, refused)

	_, err := f.rosterHandler().Enroll(ctx, EnrollStudentCommand{ClassID: classA, StudentID: joao})
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, "Aluno já está matriculado em outra turma", shared.UserMessage(err, "erro"))
	assert.Equal(t, 2, f.api.Count(fakeapi.OpListClasses))
	assert.Zero(t, f.pub.count(shared.EventStudentEnrolled))
}

func TestUnenroll_ServerRejectionResyncs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	classA := f.api.SeedClass("5A", shared.Grade5)
	ana := f.api.SeedStudent("Ana", classA)

	refused := shared.NewDomainError("api", "RemoveStudent", shared.ErrPolicyViolation, "Aluno possui avaliações nesta turma")
	f.api.FailOn(fakeapi.OpRemoveStudent, refused)

	_, err := f.rosterHandler().Unenroll(ctx, UnenrollStudentCommand{ClassID: classA, StudentID: ana})
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, "Aluno possui avaliações nesta turma", shared.UserMessage(err, "erro"))
	assert.Equal(t, 2, f.api.Count(fakeapi.OpListClasses))
	assert.Zero(t, f.pub.count(shared.EventStudentUnenrolled))
}

func TestEnroll_ReloadFailureIsReportedNotFatal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	classA := f.api.SeedClass("5A", shared.Grade5)
	joao := f.api.SeedStudent("João", "")

	_, err := f.view.Current(ctx)
	require.NoError(t, err)
	down := shared.WrapError("api", "/classes", shared.ErrNetwork, "falha", errors.New("refused"))
	f.api.FailOn(fakeapi.OpListClasses, down)

	result, err := f.rosterHandler().Enroll(ctx, EnrollStudentCommand{ClassID: classA, StudentID: joao})
	require.NoError(t, err)
	assert.ErrorIs(t, result.ReloadErr, shared.ErrNetwork)
	assert.Nil(t, result.Roster)
	assert.True(t, result.Class.Has(joao))
}

func TestEnroll_Validate(t *testing.T) {
	f := newFixture()
	_, err := f.rosterHandler().Enroll(context.Background(), EnrollStudentCommand{ClassID: " "})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
	assert.Empty(t, f.api.Calls())
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS AND CLASSES
// ══════════════════════════════════════════════════════════════════════════════

func TestStudentHandler_CreateUpdateObserveDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	classA := f.api.SeedClass("5A", shared.Grade5)
	h := NewStudentHandler(f.api.Students(), f.view, nil, logger.Discard())

	_, err := h.Create(ctx, validation.StudentForm{Name: "Rui", Age: 9, Grade: "4", ClassID: "turma-a"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Zero(t, f.api.Count(fakeapi.OpCreateStudent))

	created, err := h.Create(ctx, validation.StudentForm{Name: " Rui ", Age: 9, Grade: "4", ClassID: classA})
	require.NoError(t, err)
	assert.Equal(t, "Rui", created.Student.Name)
	assert.Equal(t, "5A", created.Roster.ClassNameOf(created.Student.ID))
	id := created.Student.ID

	zero := 0
	_, err = h.Update(ctx, UpdateStudentCommand{ID: id, Age: &zero})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	assert.Zero(t, f.api.Count(fakeapi.OpUpdateStudent))

	_, err = h.Update(ctx, UpdateStudentCommand{ID: id})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	grade := "6"
	updated, err := h.Update(ctx, UpdateStudentCommand{ID: id, Grade: &grade})
	require.NoError(t, err)
	assert.Equal(t, shared.Grade6, updated.Student.Grade)

	observed, err := h.UpdateObservations(ctx, id, "Asma leve")
	require.NoError(t, err)
	assert.Equal(t, "Asma leve", observed.Student.Observations)

	deleted, err := h.Delete(ctx, id)
	require.NoError(t, err)
	_, err = deleted.Roster.Student(id)
	assert.True(t, shared.IsNotFound(err))
	c, _ := deleted.Roster.Class(classA)
	assert.False(t, c.Has(id))
}

func TestClassHandler_CreateUpdateDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	h := NewClassHandler(f.api.Classes(), f.view, nil, logger.Discard())

	_, err := h.Create(ctx, validation.ClassForm{Name: " A ", Grade: "5"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Zero(t, f.api.Count(fakeapi.OpCreateClass))

	created, err := h.Create(ctx, validation.ClassForm{Name: " 5A ", Grade: "5", Description: "Manhã"})
	require.NoError(t, err)
	assert.Equal(t, "5A", created.Class.Name)
	assert.Equal(t, []string{}, created.Class.StudentIDs)

	short := "B"
	_, err = h.Update(ctx, UpdateClassCommand{ID: created.Class.ID, Name: &short})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	name := " 5B "
	updated, err := h.Update(ctx, UpdateClassCommand{ID: created.Class.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "5B", updated.Class.Name)

	deleted, err := h.Delete(ctx, created.Class.ID)
	require.NoError(t, err)
	assert.Empty(t, deleted.Roster.Classes())
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATIONS
// ══════════════════════════════════════════════════════════════════════════════

func TestEvaluationHandler_EvaluateReloadsHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	joao := f.api.SeedStudent("João", "")
	f.api.SeedEvaluation(joao, "", start.Add(-24*time.Hour), evaluation.DefaultScores())
	h := NewEvaluationHandler(f.api.EvaluationsRepo(), f.view, nil, f.pub, logger.Discard())

	form := validation.NewEvaluationForm(joao, "")
	form.Scores["speed"] = 4.5
	result, err := h.Evaluate(ctx, form)
	require.NoError(t, err)
	require.NoError(t, result.ReloadErr)
	require.Len(t, result.History, 2)
	assert.Equal(t, result.Evaluation.ID, result.History[1].ID)
	assert.Equal(t, 1, f.pub.count(shared.EventEvaluationRecorded))

	form.Scores["speed"] = 0.5
	_, err = h.Evaluate(ctx, form)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, 1, f.api.Count(fakeapi.OpCreateEvaluation))
}

func TestEvaluationHandler_EvaluateClassReportsEachStudent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	classA := f.api.SeedClass("5A", shared.Grade5)
	ana := f.api.SeedStudent("Ana", classA)
	bia := f.api.SeedStudent("Bia", classA)
	caio := f.api.SeedStudent("Caio", classA)
	outsider := f.api.SeedStudent("Davi", "")

	down := shared.WrapError("api", "/evaluations", shared.ErrNetwork, "falha", errors.New("reset"))
	f.api.FailStudent(bia, down)

	h := NewEvaluationHandler(f.api.EvaluationsRepo(), f.view, nil, f.pub, logger.Discard())
	result, err := h.EvaluateClass(ctx, EvaluateClassCommand{
		ClassID: classA,
		Forms: map[string]validation.EvaluationForm{
			ana:      validation.NewEvaluationForm("", ""),
			bia:      validation.NewEvaluationForm("", ""),
			outsider: validation.NewEvaluationForm("", ""),
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.True(t, result.HasFailures())

	assert.Equal(t, ana, result.Items[0].Student.ID)
	require.NotNil(t, result.Items[0].Evaluation)
	assert.Equal(t, classA, result.Items[0].Evaluation.ClassID)
	assert.ErrorIs(t, result.Items[1].Err, shared.ErrNetwork)
	assert.Equal(t, caio, result.Items[2].Student.ID)
	assert.True(t, result.Items[2].Skipped)

	for _, e := range f.api.Evaluations() {
		assert.NotEqual(t, outsider, e.StudentID)
	}
	assert.Equal(t, 1, f.pub.count(shared.EventEvaluationRecorded))
}

func TestEvaluationHandler_EvaluateClassValidatesEverythingFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	classA := f.api.SeedClass("5A", shared.Grade5)
	ana := f.api.SeedStudent("Ana", classA)
	bia := f.api.SeedStudent("Bia", classA)

	bad := validation.NewEvaluationForm("", "")
	bad.Scores["balance"] = 7
	h := NewEvaluationHandler(f.api.EvaluationsRepo(), f.view, nil, nil, logger.Discard())

	_, err := h.EvaluateClass(ctx, EvaluateClassCommand{
		ClassID: classA,
		Forms: map[string]validation.EvaluationForm{
			ana: validation.NewEvaluationForm("", ""),
			bia: bad,
		},
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Zero(t, f.api.Count(fakeapi.OpCreateEvaluation))

	empty := f.api.SeedClass("5C", shared.Grade5)
	_, err = h.EvaluateClass(ctx, EvaluateClassCommand{ClassID: empty})
	assert.ErrorIs(t, err, shared.ErrRosterClassAbsent)

	_, err = f.view.Reload(ctx)
	require.NoError(t, err)
	_, err = h.EvaluateClass(ctx, EvaluateClassCommand{ClassID: empty})
	assert.True(t, shared.IsPolicyViolation(err))
}
