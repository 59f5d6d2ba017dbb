package cli

import (
	"context"
	"flag"
	"strings"

	"github.com/edfisica/pe-assessment-hub/config"
	"github.com/edfisica/pe-assessment-hub/internal/application/command"
	"github.com/edfisica/pe-assessment-hub/internal/application/query"
	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// splitID takes a leading positional id, so "update ID -name X" parses.
func splitID(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func subcommand(args []string, def string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return def, args
}

// optString returns a pointer to the flag value when the flag was given.
func optString(set map[string]bool, name string, v *string) *string {
	if set[name] {
		return v
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) showDashboard(ctx context.Context, args []string) error {
	if err := parse(a.newFlagSet("dashboard"), args, 0); err != nil {
		return err
	}
	d, err := a.dashboard.Handle(ctx)
	if err != nil {
		return err
	}
	if !a.enabled(config.FeatureDivergenceReport) {
		d.Divergences = 0
	}
	a.out.Dashboard(d)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) studentsCmd(ctx context.Context, args []string) error {
	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		return a.studentsList(ctx, rest)
	case "show":
		return a.studentsShow(ctx, rest)
	case "create":
		return a.studentsCreate(ctx, rest)
	case "update":
		return a.studentsUpdate(ctx, rest)
	case "delete":
		return a.studentsDelete(ctx, rest)
	case "observe":
		return a.studentsObserve(ctx, rest)
	}
	return usageError(a.deps.Stderr, "subcomando desconhecido: students %s", sub)
}

func (a *App) studentsList(ctx context.Context, args []string) error {
	fs := a.newFlagSet("students list")
	classID := fs.String("class", "", "apenas alunos desta turma")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	r, err := a.listStudents.Handle(ctx, query.ListStudentsQuery{ClassID: *classID})
	if err != nil {
		return err
	}
	a.out.Students(r)
	return nil
}

func (a *App) studentsShow(ctx context.Context, args []string) error {
	id, rest := splitID(args)
	if err := parse(a.newFlagSet("students show"), rest, 0); err != nil {
		return err
	}
	if id == "" {
		return usageError(a.deps.Stderr, "uso: peassess students show ID")
	}
	r, err := a.view.Reload(ctx)
	if err != nil {
		return err
	}
	s, err := r.Student(id)
	if err != nil {
		return err
	}
	a.out.Student(s, r.ClassNameOf(s.ID))
	return nil
}

type studentFlags struct {
	fs           *flag.FlagSet
	name         *string
	age          *int
	grade        *string
	classID      *string
	observations *string
}

func (a *App) studentFlagSet(name string) studentFlags {
	fs := a.newFlagSet(name)
	return studentFlags{
		fs:           fs,
		name:         fs.String("name", "", "nome completo"),
		age:          fs.Int("age", 0, "idade"),
		grade:        fs.String("grade", shared.DefaultGrade.String(), "série, ex.: 5 ou \"5º Ano\""),
		classID:      fs.String("class", "", "turma (opcional)"),
		observations: fs.String("obs", "", "observações"),
	}
}

func (a *App) studentsCreate(ctx context.Context, args []string) error {
	f := a.studentFlagSet("students create")
	if err := parse(f.fs, args, 0); err != nil {
		return err
	}
	r, err := a.students.Create(ctx, validation.StudentForm{
		Name:         *f.name,
		Age:          *f.age,
		Grade:        *f.grade,
		ClassID:      *f.classID,
		Observations: *f.observations,
	})
	if err != nil {
		return err
	}
	a.out.StudentSaved("cadastrado", r)
	return nil
}

func (a *App) studentsUpdate(ctx context.Context, args []string) error {
	id, rest := splitID(args)
	f := a.studentFlagSet("students update")
	if err := parse(f.fs, rest, 0); err != nil {
		return err
	}
	if id == "" {
		return usageError(a.deps.Stderr, "uso: peassess students update ID [-name ...] [-age ...] [-grade ...] [-class ...] [-obs ...]")
	}
	set := setFlags(f.fs)
	cmd := command.UpdateStudentCommand{
		ID:           id,
		Name:         optString(set, "name", f.name),
		Grade:        optString(set, "grade", f.grade),
		ClassID:      optString(set, "class", f.classID),
		Observations: optString(set, "obs", f.observations),
	}
	if set["age"] {
		cmd.Age = f.age
	}
	r, err := a.students.Update(ctx, cmd)
	if err != nil {
		return err
	}
	a.out.StudentSaved("atualizado", r)
	return nil
}

func (a *App) studentsDelete(ctx context.Context, args []string) error {
	id, rest := splitID(args)
	if err := parse(a.newFlagSet("students delete"), rest, 0); err != nil {
		return err
	}
	if id == "" {
		return usageError(a.deps.Stderr, "uso: peassess students delete ID")
	}
	r, err := a.students.Delete(ctx, id)
	if err != nil {
		return err
	}
	a.out.StudentSaved("removido", r)
	return nil
}

func (a *App) studentsObserve(ctx context.Context, args []string) error {
	id, rest := splitID(args)
	if id == "" || len(rest) == 0 {
		return usageError(a.deps.Stderr, "uso: peassess students observe ID TEXTO")
	}
	r, err := a.students.UpdateObservations(ctx, id, strings.Join(rest, " "))
	if err != nil {
		return err
	}
	a.out.StudentSaved("atualizado", r)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASSES
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) classesCmd(ctx context.Context, args []string) error {
	sub, rest := subcommand(args, "list")
	switch sub {
	case "list":
		return a.classesList(ctx, rest)
	case "show", "available":
		return a.classesShow(ctx, sub, rest)
	case "create":
		return a.classesCreate(ctx, rest)
	case "update":
		return a.classesUpdate(ctx, rest)
	case "delete":
		return a.classesDelete(ctx, rest)
	}
	return usageError(a.deps.Stderr, "subcomando desconhecido: classes %s", sub)
}

func (a *App) classesList(ctx context.Context, args []string) error {
	if err := parse(a.newFlagSet("classes list"), args, 0); err != nil {
		return err
	}
	r, err := a.listClasses.Handle(ctx, query.ListClassesQuery{})
	if err != nil {
		return err
	}
	if !a.enabled(config.FeatureDivergenceReport) {
		r.Divergences = nil
	}
	a.out.Classes(r)
	return nil
}

func (a *App) classesShow(ctx context.Context, sub string, args []string) error {
	id, rest := splitID(args)
	fs := a.newFlagSet("classes " + sub)
	var gradeFlag *string
	if sub == "available" {
		gradeFlag = fs.String("grade", "", "apenas alunos desta série (ex.: 5)")
	}
	if err := parse(fs, rest, 0); err != nil {
		return err
	}
	if id == "" {
		return usageError(a.deps.Stderr, "uso: peassess classes %s ID", sub)
	}
	q := query.ListClassesQuery{ClassID: id}
	if gradeFlag != nil && *gradeFlag != "" {
		g, err := shared.ParseGrade(*gradeFlag)
		if err != nil {
			return err
		}
		q.Grade = g
	}
	r, err := a.listClasses.Handle(ctx, q)
	if err != nil {
		return err
	}
	if r.Degraded {
		a.out.Classes(r)
		return nil
	}
	if sub == "available" {
		a.out.Available(r.Classes[0].Available)
		return nil
	}
	a.out.Class(r.Classes[0])
	return nil
}

type classFlags struct {
	fs          *flag.FlagSet
	name        *string
	grade       *string
	description *string
}

func (a *App) classFlagSet(name string) classFlags {
	fs := a.newFlagSet(name)
	return classFlags{
		fs:          fs,
		name:        fs.String("name", "", "nome da turma"),
		grade:       fs.String("grade", shared.DefaultGrade.String(), "série"),
		description: fs.String("description", "", "descrição"),
	}
}

func (a *App) classesCreate(ctx context.Context, args []string) error {
	f := a.classFlagSet("classes create")
	if err := parse(f.fs, args, 0); err != nil {
		return err
	}
	r, err := a.classes.Create(ctx, validation.ClassForm{Name: *f.name, Grade: *f.grade, Description: *f.description})
	if err != nil {
		return err
	}
	a.out.ClassSaved("criada", r)
	return nil
}

func (a *App) classesUpdate(ctx context.Context, args []string) error {
	id, rest := splitID(args)
	f := a.classFlagSet("classes update")
	if err := parse(f.fs, rest, 0); err != nil {
		return err
	}
	if id == "" {
		return usageError(a.deps.Stderr, "uso: peassess classes update ID [-name ...] [-grade ...] [-description ...]")
	}
	set := setFlags(f.fs)
	r, err := a.classes.Update(ctx, command.UpdateClassCommand{
		ID:          id,
		Name:        optString(set, "name", f.name),
		Grade:       optString(set, "grade", f.grade),
		Description: optString(set, "description", f.description),
	})
	if err != nil {
		return err
	}
	a.out.ClassSaved("atualizada", r)
	return nil
}

func (a *App) classesDelete(ctx context.Context, args []string) error {
	id, rest := splitID(args)
	if err := parse(a.newFlagSet("classes delete"), rest, 0); err != nil {
		return err
	}
	if id == "" {
		return usageError(a.deps.Stderr, "uso: peassess classes delete ID")
	}
	r, err := a.classes.Delete(ctx, id)
	if err != nil {
		return err
	}
	a.out.ClassSaved("removida", r)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) enrollFlags(name string, args []string) (classID, studentID string, err error) {
	fs := a.newFlagSet(name)
	c := fs.String("class", "", "turma")
	s := fs.String("student", "", "aluno")
	if err := parse(fs, args, 0); err != nil {
		return "", "", err
	}
	return *c, *s, nil
}

func (a *App) enroll(ctx context.Context, args []string) error {
	classID, studentID, err := a.enrollFlags("enroll", args)
	if err != nil {
		return err
	}
	r, err := a.roster.Enroll(ctx, command.EnrollStudentCommand{ClassID: classID, StudentID: studentID})
	if err != nil {
		return err
	}
	a.out.RosterChanged("matriculado(a) na", a.studentName(r, studentID), r)
	return nil
}

func (a *App) unenroll(ctx context.Context, args []string) error {
	classID, studentID, err := a.enrollFlags("unenroll", args)
	if err != nil {
		return err
	}
	r, err := a.roster.Unenroll(ctx, command.UnenrollStudentCommand{ClassID: classID, StudentID: studentID})
	if err != nil {
		return err
	}
	a.out.RosterChanged("removido(a) da", a.studentName(r, studentID), r)
	return nil
}

func (a *App) studentName(r *command.RosterChangeResult, id string) string {
	if r.Roster != nil {
		if s, err := r.Roster.Student(id); err == nil {
			return s.Name
		}
	}
	return id
}
