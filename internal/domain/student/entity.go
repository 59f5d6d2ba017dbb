// Package student contém o modelo de domínio do aluno.
// Não há dependências externas aqui.
package student

import (
	"strings"
	"time"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Student é um aluno cadastrado por um professor.
type Student struct {
	// ID - identificador emitido pela API.
	ID string

	// Name - nome completo.
	Name string

	// Age - idade em anos, sempre positiva.
	Age int

	// Grade - série do aluno.
	Grade shared.Grade

	// ClassID - turma em que o aluno está matriculado (vazio = sem turma).
	ClassID string

	// Observations - texto livre do professor.
	Observations string

	// TeacherID - usuário dono do cadastro.
	TeacherID string

	// CreatedAt - momento do cadastro.
	CreatedAt time.Time
}

// IsEnrolled retorna true se o aluno aponta para alguma turma.
func (s Student) IsEnrolled() bool {
	return shared.NormalizeID(s.ClassID) != ""
}

// EnrolledIn retorna true se o ClassID do aluno é a turma informada.
func (s Student) EnrolledIn(classID string) bool {
	return shared.SameID(s.ClassID, classID)
}

// EnrolledElsewhere retorna true se o aluno aponta para outra turma.
func (s Student) EnrolledElsewhere(classID string) bool {
	return s.IsEnrolled() && !s.EnrolledIn(classID)
}

// ══════════════════════════════════════════════════════════════════════════════
// CREATE / UPDATE SHAPES
// ══════════════════════════════════════════════════════════════════════════════

// Draft contém os campos de um novo aluno.
type Draft struct {
	Name         string
	Age          int
	Grade        shared.Grade
	ClassID      string
	Observations string
}

// Validate verifica os campos obrigatórios do rascunho.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrEmptyValue, "nome é obrigatório")
	}
	if d.Age <= 0 {
		return shared.NewDomainError("student", "Validate", shared.ErrValueOutOfRange, "idade deve ser positiva")
	}
	if !d.Grade.IsValid() {
		return shared.ErrInvalidGrade
	}
	if id := shared.NormalizeID(d.ClassID); id != "" && !shared.IsObjectID(id) {
		return shared.NewDomainError("student", "Validate", shared.ErrInvalidID, "ID da turma inválido")
	}
	return nil
}

// NewStudent cria um aluno a partir de um rascunho validado.
// O ID é atribuído pela API depois da criação.
func NewStudent(d Draft) (*Student, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Student{
		Name:         strings.TrimSpace(d.Name),
		Age:          d.Age,
		Grade:        d.Grade,
		ClassID:      shared.NormalizeID(d.ClassID),
		Observations: d.Observations,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Changes descreve uma atualização parcial. Campos nil não são enviados.
type Changes struct {
	Name         *string
	Age          *int
	Grade        *shared.Grade
	ClassID      *string
	Observations *string
}

// IsEmpty retorna true se nenhuma alteração foi pedida.
func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Age == nil && c.Grade == nil && c.ClassID == nil && c.Observations == nil
}

// Apply devolve uma cópia de s com as alterações aplicadas.
func (c Changes) Apply(s Student) Student {
	if c.Name != nil {
		s.Name = strings.TrimSpace(*c.Name)
	}
	if c.Age != nil {
		s.Age = *c.Age
	}
	if c.Grade != nil {
		s.Grade = *c.Grade
	}
	if c.ClassID != nil {
		s.ClassID = shared.NormalizeID(*c.ClassID)
	}
	if c.Observations != nil {
		s.Observations = *c.Observations
	}
	return s
}

// ObservationsChange monta a atualização usada para salvar apenas observações.
func ObservationsChange(text string) Changes {
	return Changes{Observations: &text}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// FindByID procura um aluno pelo ID normalizado.
func FindByID(students []Student, id string) (Student, bool) {
	for _, s := range students {
		if shared.SameID(s.ID, id) {
			return s, true
		}
	}
	return Student{}, false
}

// IndexByID monta um mapa ID → aluno.
func IndexByID(students []Student) map[string]Student {
	out := make(map[string]Student, len(students))
	for _, s := range students {
		if id := shared.NormalizeID(s.ID); id != "" {
			out[id] = s
		}
	}
	return out
}
