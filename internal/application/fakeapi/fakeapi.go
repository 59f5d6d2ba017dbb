// Package fakeapi is an in-memory stand-in for the assessment API used by
// application tests. Enrollment changes update both the class roster and the
// student's classId, as the real server does.
package fakeapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
)

// Operation names accepted by FailOn and recorded in Calls.
const (
	OpListStudents      = "students.list"
	OpListClasses       = "classes.list"
	OpAddStudent        = "classes.add_student"
	OpRemoveStudent     = "classes.remove_student"
	OpCreateStudent     = "students.create"
	OpUpdateStudent     = "students.update"
	OpDeleteStudent     = "students.delete"
	OpCreateClass       = "classes.create"
	OpUpdateClass       = "classes.update"
	OpDeleteClass       = "classes.delete"
	OpCreateEvaluation  = "evaluations.create"
	OpListByStudent     = "evaluations.by_student"
	OpListByClass       = "evaluations.by_class"
	OpProgressByStudent = "evaluations.progress_student"
	OpProgressByClass   = "evaluations.progress_class"
)

// API holds the server-side state.
type API struct {
	mu       sync.Mutex
	seq      int
	clock    time.Time
	students []student.Student
	classes  []classroom.Class
	evals    []evaluation.Evaluation

	failures        map[string]error
	studentFailures map[string]error
	calls           []string
}

// New creates an empty API whose clock starts at start.
func New(start time.Time) *API {
	return &API{
		clock:           start,
		failures:        map[string]error{},
		studentFailures: map[string]error{},
	}
}

func (a *API) nextID() string {
	a.seq++
	return fmt.Sprintf("%024x", a.seq)
}

func (a *API) tick() time.Time {
	a.clock = a.clock.Add(time.Hour)
	return a.clock
}

// FailOn makes op return err until cleared with a nil err.
func (a *API) FailOn(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.failures, op)
		return
	}
	a.failures[op] = err
}

// FailStudent makes ListByStudent and evaluation creation fail for one student.
func (a *API) FailStudent(studentID string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.studentFailures[studentID] = err
}

// Calls returns the operations performed so far.
func (a *API) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Count returns how many times op ran.
func (a *API) Count(op string) int {
	n := 0
	for _, c := range a.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

func (a *API) begin(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.calls = append(a.calls, op)
	return a.failures[op]
}

// ══════════════════════════════════════════════════════════════════════════════
// SEEDING
// ══════════════════════════════════════════════════════════════════════════════

// SeedClass adds a class and returns its id.
func (a *API) SeedClass(name string, grade shared.Grade) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := classroom.Class{ID: a.nextID(), Name: name, Grade: grade, StudentIDs: []string{}}
	a.classes = append(a.classes, c)
	return c.ID
}

// SeedStudent adds a student, enrolled in classID when not empty.
func (a *API) SeedStudent(name string, classID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := student.Student{ID: a.nextID(), Name: name, Age: 10, Grade: shared.Grade5, ClassID: classID, CreatedAt: a.tick()}
	a.students = append(a.students, s)
	if classID != "" {
		a.addToRoster(classID, s.ID)
	}
	return s.ID
}

// SeedEvaluation records an evaluation at date.
func (a *API) SeedEvaluation(studentID, classID string, date time.Time, scores evaluation.Scores) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := evaluation.Evaluation{ID: a.nextID(), StudentID: studentID, ClassID: classID, Date: date, Scores: scores.Clone()}
	a.evals = append(a.evals, e)
	return e.ID
}

// SetGrade changes a student's grade.
func (a *API) SetGrade(studentID string, grade shared.Grade) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if si := a.studentIndex(studentID); si >= 0 {
		a.students[si].Grade = grade
	}
}

// DetachClassID clears a student's classId without touching rosters, leaving
// the two enrollment sources out of sync.
func (a *API) DetachClassID(studentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.students {
		if a.students[i].ID == studentID {
			a.students[i].ClassID = ""
		}
	}
}

// Student returns the server copy of a student.
func (a *API) Student(id string) (student.Student, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return student.FindByID(a.students, id)
}

// Class returns the server copy of a class.
func (a *API) Class(id string) (classroom.Class, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := classroom.FindByID(a.classes, id)
	if ok {
		c.StudentIDs = append([]string{}, c.StudentIDs...)
	}
	return c, ok
}

// Evaluations returns every stored evaluation.
func (a *API) Evaluations() []evaluation.Evaluation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]evaluation.Evaluation(nil), a.evals...)
}

func (a *API) classIndex(id string) int {
	for i, c := range a.classes {
		if shared.SameID(c.ID, id) {
			return i
		}
	}
	return -1
}

func (a *API) studentIndex(id string) int {
	for i, s := range a.students {
		if shared.SameID(s.ID, id) {
			return i
		}
	}
	return -1
}

func (a *API) addToRoster(classID, studentID string) {
	if i := a.classIndex(classID); i >= 0 {
		a.classes[i] = a.classes[i].WithStudent(studentID)
	}
}

func (a *API) removeFromRosters(studentID string) {
	for i := range a.classes {
		a.classes[i] = a.classes[i].WithoutStudent(studentID)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORIES
// ══════════════════════════════════════════════════════════════════════════════

// Students returns the student.Repository view.
func (a *API) Students() *Students { return &Students{a: a} }

// Classes returns the classroom.Repository view.
func (a *API) Classes() *Classes { return &Classes{a: a} }

// EvaluationsRepo returns the evaluation.Repository view.
func (a *API) EvaluationsRepo() *Evaluations { return &Evaluations{a: a} }

// Students implements student.Repository.
type Students struct{ a *API }

func (r *Students) List(ctx context.Context, f student.ListFilter) ([]student.Student, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpListStudents); err != nil {
		return nil, err
	}
	out := []student.Student{}
	for _, s := range a.students {
		if f.ClassID == "" || shared.SameID(s.ClassID, f.ClassID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *Students) GetByID(ctx context.Context, id string) (*student.Student, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := a.studentIndex(id)
	if i < 0 {
		return nil, shared.ErrStudentNotFound
	}
	s := a.students[i]
	return &s, nil
}

func (r *Students) Create(ctx context.Context, d student.Draft) (*student.Student, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpCreateStudent); err != nil {
		return nil, err
	}
	s, err := student.NewStudent(d)
	if err != nil {
		return nil, err
	}
	s.ID = a.nextID()
	a.students = append(a.students, *s)
	if s.ClassID != "" {
		a.addToRoster(s.ClassID, s.ID)
	}
	return s, nil
}

func (r *Students) Update(ctx context.Context, id string, c student.Changes) (*student.Student, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpUpdateStudent); err != nil {
		return nil, err
	}
	i := a.studentIndex(id)
	if i < 0 {
		return nil, shared.ErrStudentNotFound
	}
	before := a.students[i].ClassID
	a.students[i] = c.Apply(a.students[i])
	if after := a.students[i].ClassID; !shared.SameID(before, after) {
		a.removeFromRosters(id)
		if after != "" {
			a.addToRoster(after, id)
		}
	}
	s := a.students[i]
	return &s, nil
}

func (r *Students) Delete(ctx context.Context, id string) error {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpDeleteStudent); err != nil {
		return err
	}
	i := a.studentIndex(id)
	if i < 0 {
		return shared.ErrStudentNotFound
	}
	a.students = append(a.students[:i], a.students[i+1:]...)
	a.removeFromRosters(id)
	return nil
}

// Classes implements classroom.Repository.
type Classes struct{ a *API }

func (r *Classes) List(ctx context.Context) ([]classroom.Class, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpListClasses); err != nil {
		return nil, err
	}
	out := make([]classroom.Class, 0, len(a.classes))
	for _, c := range a.classes {
		c.StudentIDs = append([]string{}, c.StudentIDs...)
		out = append(out, c)
	}
	return out, nil
}

func (r *Classes) GetByID(ctx context.Context, id string) (*classroom.Class, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := a.classIndex(id)
	if i < 0 {
		return nil, shared.ErrClassNotFound
	}
	c := a.classes[i]
	c.StudentIDs = append([]string{}, c.StudentIDs...)
	return &c, nil
}

func (r *Classes) Create(ctx context.Context, d classroom.Draft) (*classroom.Class, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpCreateClass); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d = d.Normalized()
	c := classroom.Class{ID: a.nextID(), Name: d.Name, Grade: d.Grade, Description: d.Description, StudentIDs: []string{}}
	a.classes = append(a.classes, c)
	return &c, nil
}

func (r *Classes) Update(ctx context.Context, id string, ch classroom.Changes) (*classroom.Class, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpUpdateClass); err != nil {
		return nil, err
	}
	i := a.classIndex(id)
	if i < 0 {
		return nil, shared.ErrClassNotFound
	}
	if ch.Name != nil {
		a.classes[i].Name = *ch.Name
	}
	if ch.Grade != nil {
		a.classes[i].Grade = *ch.Grade
	}
	if ch.Description != nil {
		a.classes[i].Description = *ch.Description
	}
	c := a.classes[i]
	return &c, nil
}

func (r *Classes) Delete(ctx context.Context, id string) error {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpDeleteClass); err != nil {
		return err
	}
	i := a.classIndex(id)
	if i < 0 {
		return shared.ErrClassNotFound
	}
	for _, sid := range a.classes[i].StudentIDs {
		if j := a.studentIndex(sid); j >= 0 {
			a.students[j].ClassID = ""
		}
	}
	a.classes = append(a.classes[:i], a.classes[i+1:]...)
	return nil
}

func (r *Classes) AddStudent(ctx context.Context, classID, studentID string) (*classroom.Class, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpAddStudent); err != nil {
		return nil, err
	}
	ci, si := a.classIndex(classID), a.studentIndex(studentID)
	if ci < 0 {
		return nil, shared.ErrClassNotFound
	}
	if si < 0 {
		return nil, shared.ErrStudentNotFound
	}
	if a.classes[ci].Has(studentID) {
		return nil, shared.NewDomainError("api", "AddStudent", shared.ErrPolicyViolation, "Aluno já está nesta turma")
	}
	if a.students[si].EnrolledElsewhere(classID) {
		return nil, shared.NewDomainError("api", "AddStudent", shared.ErrPolicyViolation, "Aluno já está matriculado em outra turma")
	}
	a.classes[ci] = a.classes[ci].WithStudent(studentID)
	a.students[si].ClassID = a.classes[ci].ID
	c := a.classes[ci]
	c.StudentIDs = append([]string{}, c.StudentIDs...)
	return &c, nil
}

func (r *Classes) RemoveStudent(ctx context.Context, classID, studentID string) (*classroom.Class, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpRemoveStudent); err != nil {
		return nil, err
	}
	ci := a.classIndex(classID)
	if ci < 0 {
		return nil, shared.ErrClassNotFound
	}
	a.classes[ci] = a.classes[ci].WithoutStudent(studentID)
	if si := a.studentIndex(studentID); si >= 0 && a.students[si].EnrolledIn(classID) {
		a.students[si].ClassID = ""
	}
	c := a.classes[ci]
	c.StudentIDs = append([]string{}, c.StudentIDs...)
	return &c, nil
}

// Evaluations implements evaluation.Repository.
type Evaluations struct{ a *API }

func (r *Evaluations) filter(keep func(evaluation.Evaluation) bool) []evaluation.Evaluation {
	out := []evaluation.Evaluation{}
	for _, e := range r.a.evals {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *Evaluations) ListByStudent(ctx context.Context, studentID string) ([]evaluation.Evaluation, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpListByStudent); err != nil {
		return nil, err
	}
	if err := a.studentFailures[studentID]; err != nil {
		return nil, err
	}
	return r.filter(func(e evaluation.Evaluation) bool { return shared.SameID(e.StudentID, studentID) }), nil
}

func (r *Evaluations) ListByClass(ctx context.Context, classID string) ([]evaluation.Evaluation, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpListByClass); err != nil {
		return nil, err
	}
	return r.filter(func(e evaluation.Evaluation) bool { return shared.SameID(e.ClassID, classID) }), nil
}

func (r *Evaluations) GetByID(ctx context.Context, id string) (*evaluation.Evaluation, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, e := range a.evals {
		if shared.SameID(e.ID, id) {
			return &e, nil
		}
	}
	return nil, shared.ErrEvaluationNotFound
}

func (r *Evaluations) Create(ctx context.Context, d evaluation.Draft) (*evaluation.Evaluation, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpCreateEvaluation); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := a.studentFailures[d.StudentID]; err != nil {
		return nil, err
	}
	d = d.Normalized()
	e := evaluation.Evaluation{
		ID:              a.nextID(),
		StudentID:       d.StudentID,
		ClassID:         d.ClassID,
		Date:            a.tick(),
		Scores:          d.Scores.Clone(),
		Strengths:       d.Strengths,
		PointsToDevelop: d.PointsToDevelop,
	}
	a.evals = append(a.evals, e)
	return &e, nil
}

func (r *Evaluations) Update(ctx context.Context, id string, c evaluation.Changes) (*evaluation.Evaluation, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range a.evals {
		if !shared.SameID(a.evals[i].ID, id) {
			continue
		}
		for k, v := range c.Scores {
			a.evals[i].Scores[k] = v
		}
		if c.Strengths != nil {
			a.evals[i].Strengths = *c.Strengths
		}
		if c.PointsToDevelop != nil {
			a.evals[i].PointsToDevelop = *c.PointsToDevelop
		}
		e := a.evals[i]
		return &e, nil
	}
	return nil, shared.ErrEvaluationNotFound
}

func (r *Evaluations) Delete(ctx context.Context, id string) error {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range a.evals {
		if shared.SameID(a.evals[i].ID, id) {
			a.evals = append(a.evals[:i], a.evals[i+1:]...)
			return nil
		}
	}
	return shared.ErrEvaluationNotFound
}

func (r *Evaluations) ProgressByStudent(ctx context.Context, studentID string) (evaluation.ProgressReport, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpProgressByStudent); err != nil {
		return evaluation.ProgressReport{}, err
	}
	return evaluation.AggregateByStudent(r.filter(func(e evaluation.Evaluation) bool {
		return shared.SameID(e.StudentID, studentID)
	})), nil
}

func (r *Evaluations) ProgressByClass(ctx context.Context, classID string) (evaluation.ProgressReport, error) {
	a := r.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.begin(ctx, OpProgressByClass); err != nil {
		return evaluation.ProgressReport{}, err
	}
	return evaluation.AggregateByClass(r.filter(func(e evaluation.Evaluation) bool {
		return shared.SameID(e.ClassID, classID)
	})), nil
}

var (
	_ student.Repository    = (*Students)(nil)
	_ classroom.Repository  = (*Classes)(nil)
	_ evaluation.Repository = (*Evaluations)(nil)
)
