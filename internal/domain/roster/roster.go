// Package roster concilia a matrícula dos alunos nas turmas.
//
// A API guarda a matrícula em dois lugares: Student.ClassID e
// Class.StudentIDs. Nada garante que os dois lados concordem, então este
// pacote deriva a matrícula das duas fontes, decide quais alunos podem entrar
// em uma turma e aplica a regra "um aluno pertence a no máximo uma turma".
//
// Todas as funções são puras: nenhuma chama a rede.
package roster

import (
	"sort"

	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// PURE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AvailableStudents devolve os alunos que podem ser adicionados à turma
// selecionada, na ordem de entrada. Fica de fora quem já está no roster da
// turma, quem tem ClassID de outra turma e quem aparece no roster de outra
// turma. Sem turma selecionada, todos os alunos são devolvidos.
func AvailableStudents(all []student.Student, classes []classroom.Class, selected *classroom.Class) []student.Student {
	out := make([]student.Student, 0, len(all))
	if selected == nil {
		return append(out, all...)
	}

	members := MembershipFromClasses(classes)
	for _, s := range all {
		id := shared.NormalizeID(s.ID)
		if selected.Has(id) {
			continue
		}
		if s.EnrolledElsewhere(selected.ID) {
			continue
		}
		if classID, ok := members[id]; ok && !shared.SameID(classID, selected.ID) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// FilterByGrade mantém os alunos da série informada, na ordem original.
// Série vazia não filtra.
func FilterByGrade(students []student.Student, grade shared.Grade) []student.Student {
	if grade == "" {
		return students
	}
	out := make([]student.Student, 0, len(students))
	for _, s := range students {
		if s.Grade == grade {
			out = append(out, s)
		}
	}
	return out
}

// CanEnroll retorna true se o aluno não está no roster da turma e não
// aponta para outra turma pelo ClassID.
func CanEnroll(s student.Student, target classroom.Class) bool {
	return checkEnroll(s, target) == nil
}

// Enroll devolve a turma com o aluno adicionado.
// Falha com um erro de política quando CanEnroll seria false.
func Enroll(target classroom.Class, s student.Student) (classroom.Class, error) {
	if err := checkEnroll(s, target); err != nil {
		return target, err
	}
	return target.WithStudent(s.ID), nil
}

// Unenroll devolve a turma sem o aluno.
// Falha com um erro de política se o aluno não está no roster.
func Unenroll(target classroom.Class, studentID string) (classroom.Class, error) {
	if !target.Has(studentID) {
		return target, shared.ErrNotInClass
	}
	return target.WithoutStudent(studentID), nil
}

func checkEnroll(s student.Student, target classroom.Class) error {
	if target.Has(s.ID) {
		return shared.ErrAlreadyInClass
	}
	if s.EnrolledElsewhere(target.ID) {
		return shared.ErrEnrolledElsewhere
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBERSHIP DERIVATION
// ══════════════════════════════════════════════════════════════════════════════

// Membership mapeia ID do aluno → ID da turma.
type Membership map[string]string

// MembershipFromClasses deriva a matrícula apenas dos rosters das turmas.
// Se um aluno aparece em mais de uma turma, vale a primeira da lista.
func MembershipFromClasses(classes []classroom.Class) Membership {
	m := Membership{}
	for _, c := range classes {
		classID := shared.NormalizeID(c.ID)
		for _, sid := range c.StudentIDs {
			sid = shared.NormalizeID(sid)
			if sid == "" {
				continue
			}
			if _, seen := m[sid]; !seen {
				m[sid] = classID
			}
		}
	}
	return m
}

// MembershipFromStudents deriva a matrícula apenas do ClassID dos alunos.
func MembershipFromStudents(students []student.Student) Membership {
	m := Membership{}
	for _, s := range students {
		if s.IsEnrolled() {
			m[shared.NormalizeID(s.ID)] = shared.NormalizeID(s.ClassID)
		}
	}
	return m
}

// Equal compara duas derivações.
func (m Membership) Equal(other Membership) bool {
	if len(m) != len(other) {
		return false
	}
	for sid, cid := range m {
		if oc, ok := other[sid]; !ok || !shared.SameID(cid, oc) {
			return false
		}
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER
// ══════════════════════════════════════════════════════════════════════════════

// Roster é um retrato das duas coleções carregadas da API.
// O roster das turmas é a fonte principal; ClassID é usado como alternativa.
type Roster struct {
	students  []student.Student
	classes   []classroom.Class
	fromClass Membership
}

// New monta o retrato a partir das listas completas.
func New(students []student.Student, classes []classroom.Class) *Roster {
	return &Roster{
		students:  students,
		classes:   classes,
		fromClass: MembershipFromClasses(classes),
	}
}

// Students devolve os alunos do retrato.
func (r *Roster) Students() []student.Student { return r.students }

// Classes devolve as turmas do retrato.
func (r *Roster) Classes() []classroom.Class { return r.classes }

// Student procura um aluno.
func (r *Roster) Student(id string) (student.Student, error) {
	s, ok := student.FindByID(r.students, id)
	if !ok {
		return student.Student{}, shared.ErrRosterStudentAbsent
	}
	return s, nil
}

// Class procura uma turma.
func (r *Roster) Class(id string) (classroom.Class, error) {
	c, ok := classroom.FindByID(r.classes, id)
	if !ok {
		return classroom.Class{}, shared.ErrRosterClassAbsent
	}
	return c, nil
}

// Available devolve os alunos que podem entrar na turma.
func (r *Roster) Available(classID string) ([]student.Student, error) {
	c, err := r.Class(classID)
	if err != nil {
		return nil, err
	}
	return AvailableStudents(r.students, r.classes, &c), nil
}

// CheckEnroll valida a matrícula olhando as duas fontes: o ClassID do aluno
// e os rosters de todas as turmas.
func (r *Roster) CheckEnroll(classID, studentID string) error {
	c, err := r.Class(classID)
	if err != nil {
		return err
	}
	s, err := r.Student(studentID)
	if err != nil {
		return err
	}
	if err := checkEnroll(s, c); err != nil {
		return err
	}
	if other, ok := r.fromClass[shared.NormalizeID(s.ID)]; ok && !shared.SameID(other, c.ID) {
		return shared.ErrEnrolledElsewhere
	}
	return nil
}

// Enroll devolve a turma com o aluno adicionado, sem chamar a rede.
func (r *Roster) Enroll(classID, studentID string) (classroom.Class, error) {
	if err := r.CheckEnroll(classID, studentID); err != nil {
		return classroom.Class{}, err
	}
	c, _ := r.Class(classID)
	return c.WithStudent(studentID), nil
}

// Unenroll devolve a turma sem o aluno, sem chamar a rede.
func (r *Roster) Unenroll(classID, studentID string) (classroom.Class, error) {
	c, err := r.Class(classID)
	if err != nil {
		return classroom.Class{}, err
	}
	return Unenroll(c, studentID)
}

// ClassOf devolve a turma do aluno. O roster das turmas decide; o ClassID do
// aluno só é consultado quando nenhuma turma o lista.
func (r *Roster) ClassOf(studentID string) (classroom.Class, bool) {
	if cid, ok := r.fromClass[shared.NormalizeID(studentID)]; ok {
		if c, found := classroom.FindByID(r.classes, cid); found {
			return c, true
		}
	}
	s, ok := student.FindByID(r.students, studentID)
	if !ok || !s.IsEnrolled() {
		return classroom.Class{}, false
	}
	return classroom.FindByID(r.classes, s.ClassID)
}

// NoClassLabel é o texto mostrado para alunos sem turma.
const NoClassLabel = "Sem turma"

// ClassNameOf devolve o nome da turma do aluno ou NoClassLabel.
func (r *Roster) ClassNameOf(studentID string) string {
	if c, ok := r.ClassOf(studentID); ok {
		return c.Name
	}
	return NoClassLabel
}

// Members devolve os alunos listados no roster da turma, na ordem do roster.
// IDs sem aluno correspondente são ignorados.
func (r *Roster) Members(classID string) []student.Student {
	c, ok := classroom.FindByID(r.classes, classID)
	if !ok {
		return nil
	}
	byID := student.IndexByID(r.students)
	out := make([]student.Student, 0, len(c.StudentIDs))
	for _, sid := range c.StudentIDs {
		if s, ok := byID[shared.NormalizeID(sid)]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Unassigned devolve os alunos que não pertencem a nenhuma turma.
func (r *Roster) Unassigned() []student.Student {
	out := []student.Student{}
	for _, s := range r.students {
		if _, ok := r.ClassOf(s.ID); !ok {
			out = append(out, s)
		}
	}
	return out
}

// Divergence descreve um aluno cujas duas fontes de matrícula discordam.
type Divergence struct {
	StudentID string

	// ClassIDField - o que o aluno diz (pode ser vazio).
	ClassIDField string

	// ListedIn - turmas cujo roster contém o aluno.
	ListedIn []string
}

// Divergences lista os alunos cujas fontes discordam, ordenados por ID.
func (r *Roster) Divergences() []Divergence {
	listed := map[string][]string{}
	for _, c := range r.classes {
		for _, sid := range c.StudentIDs {
			sid = shared.NormalizeID(sid)
			if sid != "" {
				listed[sid] = append(listed[sid], shared.NormalizeID(c.ID))
			}
		}
	}

	var out []Divergence
	seen := map[string]bool{}
	for _, s := range r.students {
		id := shared.NormalizeID(s.ID)
		seen[id] = true
		in := listed[id]
		field := shared.NormalizeID(s.ClassID)
		switch {
		case len(in) > 1:
		case len(in) == 1 && shared.SameID(in[0], field):
			continue
		case len(in) == 0 && field == "":
			continue
		}
		out = append(out, Divergence{StudentID: id, ClassIDField: field, ListedIn: in})
	}
	for sid, in := range listed {
		if !seen[sid] {
			out = append(out, Divergence{StudentID: sid, ListedIn: in})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

// Consistent retorna true se as duas fontes concordam para todos os alunos.
func (r *Roster) Consistent() bool {
	return MembershipFromClasses(r.classes).Equal(MembershipFromStudents(r.students)) &&
		len(r.Divergences()) == 0
}
