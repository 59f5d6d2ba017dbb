package presenter

import (
	"fmt"
	"strings"

	"github.com/edfisica/pe-assessment-hub/internal/application/command"
	"github.com/edfisica/pe-assessment-hub/internal/application/query"
	"github.com/edfisica/pe-assessment-hub/internal/domain/roster"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

// WhoAmI mostra o usuário logado.
func (p *Presenter) WhoAmI(u user.User) {
	p.printf("%s <%s>\n", u.Name, u.Email)
	p.printf("Perfil: %s\n", u.Role.Label())
	if u.School != "" {
		p.printf("Escola: %s\n", u.School)
	}
}

// Dashboard mostra o painel inicial.
func (p *Presenter) Dashboard(d *query.DashboardDTO) {
	name := d.User.Name
	if name == "" {
		name = "professor(a)"
	}
	p.title("Olá, " + name)
	if d.Degraded {
		p.println(MsgDegraded)
	}
	p.table([]string{"Indicador", "Total"}, [][]string{
		{"Alunos", fmt.Sprint(d.TotalStudents)},
		{"Turmas", fmt.Sprint(d.TotalClasses)},
		{"Matriculados", fmt.Sprint(d.TotalEnrolled)},
		{"Sem turma", fmt.Sprint(d.Unassigned)},
	})
	if d.Divergences > 0 {
		p.printf("\n⚠ %d aluno(s) com matrícula divergente. Veja: peassess classes list\n", d.Divergences)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ALUNOS
// ══════════════════════════════════════════════════════════════════════════════

// Students mostra a lista de alunos.
func (p *Presenter) Students(r *query.ListStudentsResult) {
	if r.Degraded {
		p.println(MsgDegraded)
	}
	if len(r.Students) == 0 {
		p.println("Nenhum aluno cadastrado.")
		return
	}
	rows := make([][]string, 0, len(r.Students))
	for _, s := range r.Students {
		rows = append(rows, []string{s.Student.ID, s.Student.Name, fmt.Sprint(s.Student.Age), s.Student.Grade.String(), s.ClassName})
	}
	p.table([]string{"ID", "Nome", "Idade", "Série", "Turma"}, rows)
}

// Student mostra a ficha de um aluno.
func (p *Presenter) Student(s student.Student, className string) {
	p.title(s.Name)
	p.printf("ID: %s\n", s.ID)
	p.printf("Idade: %d\n", s.Age)
	p.printf("Série: %s\n", s.Grade)
	p.printf("Turma: %s\n", className)
	if strings.TrimSpace(s.Observations) != "" {
		p.printf("Observações: %s\n", s.Observations)
	}
}

// StudentSaved confirma uma mutação de aluno.
func (p *Presenter) StudentSaved(verb string, r *command.StudentResult) {
	p.Success("Aluno %s %s.", orID(r.Student.Name, r.Student.ID), verb)
	p.reloadWarning(r.ReloadErr)
}

// ══════════════════════════════════════════════════════════════════════════════
// TURMAS
// ══════════════════════════════════════════════════════════════════════════════

// Classes mostra a lista de turmas com o total de alunos.
func (p *Presenter) Classes(r *query.ListClassesResult) {
	if r.Degraded {
		p.println(MsgDegraded)
	}
	if len(r.Classes) == 0 {
		p.println("Nenhuma turma cadastrada.")
		return
	}
	rows := make([][]string, 0, len(r.Classes))
	for _, c := range r.Classes {
		rows = append(rows, []string{c.Class.ID, c.Class.Name, c.Class.Grade.String(), fmt.Sprint(len(c.Members))})
	}
	p.table([]string{"ID", "Nome", "Série", "Alunos"}, rows)
	p.Divergences(r.Divergences)
}

// Class mostra uma turma, seus alunos e quem ainda pode ser matriculado.
func (p *Presenter) Class(c query.ClassDTO) {
	p.title(c.Class.Name + " - " + c.Class.Grade.String())
	if c.Class.Description != "" {
		p.println(c.Class.Description)
	}
	p.printf("\nAlunos (%d):\n", len(c.Members))
	p.studentNames(c.Members, "Nenhum aluno matriculado.")
	p.printf("\nDisponíveis para matrícula (%d):\n", len(c.Available))
	p.studentNames(c.Available, "Nenhum aluno disponível.")
}

// Available lista os alunos que podem entrar em uma turma.
func (p *Presenter) Available(students []student.Student) {
	p.studentNames(students, "Nenhum aluno disponível.")
}

func (p *Presenter) studentNames(students []student.Student, empty string) {
	if len(students) == 0 {
		p.println("  " + empty)
		return
	}
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{"  " + s.ID, s.Name, s.Grade.String()})
	}
	p.table([]string{"  ID", "Nome", "Série"}, rows)
}

// Divergences avisa sobre alunos cujas fontes de matrícula discordam.
func (p *Presenter) Divergences(divs []roster.Divergence) {
	if len(divs) == 0 {
		return
	}
	p.printf("\n⚠ Matrículas divergentes (%d):\n", len(divs))
	rows := make([][]string, 0, len(divs))
	for _, d := range divs {
		field := d.ClassIDField
		if field == "" {
			field = "-"
		}
		listed := strings.Join(d.ListedIn, ", ")
		if listed == "" {
			listed = "-"
		}
		rows = append(rows, []string{"  " + d.StudentID, field, listed})
	}
	p.table([]string{"  Aluno", "classId", "Listado em"}, rows)
}

// ClassSaved confirma uma mutação de turma.
func (p *Presenter) ClassSaved(verb string, r *command.ClassResult) {
	p.Success("Turma %s %s.", orID(r.Class.Name, r.Class.ID), verb)
	p.reloadWarning(r.ReloadErr)
}

// RosterChanged confirma uma matrícula ou remoção.
func (p *Presenter) RosterChanged(verb string, studentName string, r *command.RosterChangeResult) {
	p.Success("%s %s turma %s.", studentName, verb, orID(r.Class.Name, r.Class.ID))
	if r.Roster != nil {
		p.printf("A turma tem agora %d aluno(s).\n", len(r.Roster.Members(r.Class.ID)))
	}
	p.reloadWarning(r.ReloadErr)
}

func (p *Presenter) reloadWarning(err error) {
	if err != nil {
		p.println("⚠ A alteração foi salva, mas não foi possível recarregar os dados.")
	}
}

func orID(name, id string) string {
	if strings.TrimSpace(name) == "" {
		return id
	}
	return name
}
