package validation

import (
	"strings"

	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// FORMULÁRIOS
// Cada formulário espelha uma tela de cadastro e converte para o rascunho
// do domínio depois de validado.
// ══════════════════════════════════════════════════════════════════════════════

// LoginForm - tela de login.
type LoginForm struct {
	Email    string `validate:"required,email" label:"email"`
	Password string `validate:"required" label:"senha"`
}

// Normalized apara o email.
func (f LoginForm) Normalized() LoginForm {
	f.Email = strings.TrimSpace(f.Email)
	return f
}

// RegisterForm - tela de cadastro de usuário.
type RegisterForm struct {
	Name            string `validate:"notblank,trimmin=3" label:"nome"`
	Email           string `validate:"required,email" label:"email"`
	Password        string `validate:"required,min=6" label:"senha"`
	ConfirmPassword string `validate:"eqfield=Password" label:"confirmação de senha"`
	Role            string `validate:"omitempty,oneof=professor coordenador" label:"perfil"`
}

// Normalized apara os textos e aplica o perfil padrão.
func (f RegisterForm) Normalized() RegisterForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Role = strings.ToLower(strings.TrimSpace(f.Role))
	if f.Role == "" {
		f.Role = string(user.RoleProfessor)
	}
	return f
}

// StudentForm - cadastro e edição de aluno.
type StudentForm struct {
	Name         string `validate:"notblank" label:"nome"`
	Age          int    `validate:"gt=0" label:"idade"`
	Grade        string `validate:"grade" label:"série"`
	ClassID      string `validate:"omitempty,objectid" label:"turma"`
	Observations string `label:"observações"`
}

// Draft converte o formulário em rascunho do domínio.
func (f StudentForm) Draft() student.Draft {
	g, _ := shared.ParseGrade(f.Grade)
	return student.Draft{
		Name:         strings.TrimSpace(f.Name),
		Age:          f.Age,
		Grade:        g,
		ClassID:      strings.TrimSpace(f.ClassID),
		Observations: f.Observations,
	}
}

// ClassForm - cadastro e edição de turma.
type ClassForm struct {
	Name        string `validate:"notblank,trimmin=2" label:"nome"`
	Grade       string `validate:"required,grade" label:"série"`
	Description string `label:"descrição"`
}

// Draft converte o formulário em rascunho do domínio.
func (f ClassForm) Draft() classroom.Draft {
	g, _ := shared.ParseGrade(f.Grade)
	return classroom.Draft{Name: f.Name, Grade: g, Description: f.Description}.Normalized()
}

// EvaluationForm - avaliação de um aluno.
// As chaves de Scores são os nomes dos critérios em inglês.
type EvaluationForm struct {
	StudentID       string             `validate:"notblank" label:"aluno"`
	ClassID         string             `label:"turma"`
	Scores          map[string]float64 `validate:"required,min=1,dive,keys,criterion,endkeys,score" label:"notas"`
	Strengths       string             `label:"pontos fortes"`
	PointsToDevelop string             `label:"pontos a desenvolver"`
}

// NewEvaluationForm devolve o formulário com a nota padrão em todos os critérios.
func NewEvaluationForm(studentID, classID string) EvaluationForm {
	scores := make(map[string]float64, len(evaluation.Criteria()))
	for c, v := range evaluation.DefaultScores() {
		scores[string(c)] = v
	}
	return EvaluationForm{StudentID: studentID, ClassID: classID, Scores: scores}
}

// Draft converte o formulário em rascunho do domínio.
func (f EvaluationForm) Draft() evaluation.Draft {
	scores := make(evaluation.Scores, len(f.Scores))
	for k, v := range f.Scores {
		if c, err := evaluation.ParseCriterion(k); err == nil {
			scores[c] = v
		}
	}
	return evaluation.Draft{
		StudentID:       f.StudentID,
		ClassID:         f.ClassID,
		Scores:          scores,
		Strengths:       f.Strengths,
		PointsToDevelop: f.PointsToDevelop,
	}.Normalized()
}
