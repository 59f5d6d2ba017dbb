package evaluation

import (
	"sort"
	"strings"
	"time"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// Evaluation é uma avaliação de um aluno em uma data.
// Do ponto de vista do cliente as avaliações só são criadas, nunca editadas.
type Evaluation struct {
	ID              string
	StudentID       string
	ClassID         string
	TeacherID       string
	Date            time.Time
	Scores          Scores
	Strengths       string
	PointsToDevelop string
}

// Draft contém os campos de uma nova avaliação.
type Draft struct {
	StudentID       string
	ClassID         string
	Scores          Scores
	Strengths       string
	PointsToDevelop string
}

// NewDraft devolve um rascunho com as notas padrão do formulário.
func NewDraft(studentID, classID string) Draft {
	return Draft{
		StudentID: shared.NormalizeID(studentID),
		ClassID:   shared.NormalizeID(classID),
		Scores:    DefaultScores(),
	}
}

// Validate verifica aluno e notas antes de qualquer envio.
func (d Draft) Validate() error {
	if shared.NormalizeID(d.StudentID) == "" {
		return shared.NewDomainError("evaluation", "Validate", shared.ErrEmptyValue, "aluno é obrigatório")
	}
	return d.Scores.Validate()
}

// Normalized devolve o rascunho com textos aparados.
func (d Draft) Normalized() Draft {
	d.StudentID = shared.NormalizeID(d.StudentID)
	d.ClassID = shared.NormalizeID(d.ClassID)
	d.Strengths = strings.TrimSpace(d.Strengths)
	d.PointsToDevelop = strings.TrimSpace(d.PointsToDevelop)
	return d
}

// Changes descreve uma atualização parcial de avaliação.
type Changes struct {
	Scores          Scores
	Strengths       *string
	PointsToDevelop *string
}

// SortByDate ordena as avaliações por data crescente.
// A ordenação é estável: empates mantêm a ordem de entrada.
func SortByDate(evals []Evaluation) []Evaluation {
	out := make([]Evaluation, len(evals))
	copy(out, evals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Latest devolve a avaliação de maior data.
// Em caso de empate vence a que aparece por último na entrada.
func Latest(evals []Evaluation) (Evaluation, bool) {
	if len(evals) == 0 {
		return Evaluation{}, false
	}
	sorted := SortByDate(evals)
	return sorted[len(sorted)-1], true
}
