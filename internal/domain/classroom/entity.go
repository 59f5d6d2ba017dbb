// Package classroom contém o modelo de domínio da turma.
//
// A turma guarda a lista de alunos matriculados (o roster). As operações que
// alteram essa lista devolvem uma nova Class e nunca modificam o valor original.
package classroom

import (
	"strings"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// MinNameLength é o tamanho mínimo do nome da turma, sem espaços nas pontas.
const MinNameLength = 2

// Class é uma turma de um professor.
type Class struct {
	ID          string
	Name        string
	Grade       shared.Grade
	StudentIDs  []string
	TeacherID   string
	Description string
}

// Has retorna true se o aluno faz parte do roster.
func (c Class) Has(studentID string) bool {
	for _, id := range c.StudentIDs {
		if shared.SameID(id, studentID) {
			return true
		}
	}
	return false
}

// Size devolve o número de alunos matriculados.
func (c Class) Size() int {
	return len(c.StudentIDs)
}

// WithStudent devolve uma cópia da turma com o aluno incluído.
// Se o aluno já está no roster a cópia é idêntica.
func (c Class) WithStudent(studentID string) Class {
	out := c.clone()
	if !c.Has(studentID) {
		out.StudentIDs = append(out.StudentIDs, shared.NormalizeID(studentID))
	}
	return out
}

// WithoutStudent devolve uma cópia da turma sem o aluno.
func (c Class) WithoutStudent(studentID string) Class {
	out := c.clone()
	out.StudentIDs = out.StudentIDs[:0]
	for _, id := range c.StudentIDs {
		if !shared.SameID(id, studentID) {
			out.StudentIDs = append(out.StudentIDs, id)
		}
	}
	return out
}

func (c Class) clone() Class {
	out := c
	out.StudentIDs = make([]string, len(c.StudentIDs), len(c.StudentIDs)+1)
	copy(out.StudentIDs, c.StudentIDs)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// CREATE / UPDATE SHAPES
// ══════════════════════════════════════════════════════════════════════════════

// Draft contém os campos de uma nova turma.
type Draft struct {
	Name        string
	Grade       shared.Grade
	Description string
}

// Validate aplica as regras do formulário de turma.
func (d Draft) Validate() error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("classroom", "Validate", shared.ErrEmptyValue, "nome da turma é obrigatório")
	}
	if len([]rune(name)) < MinNameLength {
		return shared.NewDomainError("classroom", "Validate", shared.ErrInvalidInput, "nome deve ter pelo menos 2 caracteres")
	}
	if d.Grade == "" {
		return shared.NewDomainError("classroom", "Validate", shared.ErrEmptyValue, "série é obrigatória")
	}
	if !d.Grade.IsValid() {
		return shared.ErrInvalidGrade
	}
	return nil
}

// Normalized devolve o rascunho com o nome aparado.
func (d Draft) Normalized() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	return d
}

// Changes descreve uma atualização parcial da turma.
type Changes struct {
	Name        *string
	Grade       *shared.Grade
	Description *string
}

// IsEmpty retorna true se nenhuma alteração foi pedida.
func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Grade == nil && c.Description == nil
}

// FindByID procura uma turma pelo ID normalizado.
func FindByID(classes []Class, id string) (Class, bool) {
	for _, c := range classes {
		if shared.SameID(c.ID, id) {
			return c, true
		}
	}
	return Class{}, false
}

// TotalEnrolled soma o tamanho de todos os rosters.
func TotalEnrolled(classes []Class) int {
	n := 0
	for _, c := range classes {
		n += c.Size()
	}
	return n
}
