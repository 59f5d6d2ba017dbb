// Package evaluation contém as avaliações físicas e a agregação de progresso.
package evaluation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CRITERION
// ══════════════════════════════════════════════════════════════════════════════

// Criterion é uma das sete dimensões avaliadas.
type Criterion string

// Critérios na ordem de declaração. Essa ordem desempata rankings.
const (
	Coordination  Criterion = "coordination"
	Balance       Criterion = "balance"
	Strength      Criterion = "strength"
	Laterality    Criterion = "laterality"
	Flexibility   Criterion = "flexibility"
	Participation Criterion = "participation"
	Speed         Criterion = "speed"
)

var allCriteria = []Criterion{
	Coordination,
	Balance,
	Strength,
	Laterality,
	Flexibility,
	Participation,
	Speed,
}

var criterionLabels = map[Criterion]string{
	Coordination:  "Coordenação",
	Balance:       "Equilíbrio",
	Strength:      "Força",
	Laterality:    "Lateralidade",
	Flexibility:   "Flexibilidade",
	Participation: "Participação",
	Speed:         "Velocidade",
}

// Criteria devolve os critérios na ordem de declaração.
func Criteria() []Criterion {
	out := make([]Criterion, len(allCriteria))
	copy(out, allCriteria)
	return out
}

// Order devolve a posição do critério, ou -1 se desconhecido.
func (c Criterion) Order() int {
	for i, v := range allCriteria {
		if v == c {
			return i
		}
	}
	return -1
}

// IsValid verifica se o critério é conhecido.
func (c Criterion) IsValid() bool {
	return c.Order() >= 0
}

// Label devolve o nome em português.
func (c Criterion) Label() string {
	if l, ok := criterionLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCriterion aceita a chave ("speed") ou o rótulo ("Velocidade").
func ParseCriterion(s string) (Criterion, error) {
	s = strings.TrimSpace(s)
	if c := Criterion(strings.ToLower(s)); c.IsValid() {
		return c, nil
	}
	for c, label := range criterionLabels {
		if strings.EqualFold(label, s) {
			return c, nil
		}
	}
	return "", shared.ErrInvalidCriterion
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORES
// ══════════════════════════════════════════════════════════════════════════════

// Scores guarda as notas de uma avaliação por critério.
// Uma chave ausente significa que o critério não foi avaliado.
type Scores map[Criterion]float64

// DefaultScores devolve todas as notas em shared.DefaultScore, como o formulário novo.
func DefaultScores() Scores {
	s := make(Scores, len(allCriteria))
	for _, c := range allCriteria {
		s[c] = shared.DefaultScore
	}
	return s
}

// Get devolve a nota de um critério, se presente.
func (s Scores) Get(c Criterion) (float64, bool) {
	v, ok := s[c]
	return v, ok
}

// Clone devolve uma cópia independente.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Validate exige os sete critérios com notas válidas.
func (s Scores) Validate() error {
	for _, c := range allCriteria {
		v, ok := s[c]
		if !ok {
			return shared.NewDomainError("evaluation", "Validate", shared.ErrEmptyValue,
				fmt.Sprintf("nota de %s é obrigatória", c.Label()))
		}
		if !shared.IsValidScore(v) {
			return shared.NewDomainError("evaluation", "Validate", shared.ErrValueOutOfRange,
				fmt.Sprintf("nota de %s deve estar entre 1 e 5 em passos de 0,5", c.Label()))
		}
	}
	for c := range s {
		if !c.IsValid() {
			return shared.ErrInvalidCriterion
		}
	}
	return nil
}

// Keys devolve os critérios presentes na ordem de declaração.
func (s Scores) Keys() []Criterion {
	out := make([]Criterion, 0, len(s))
	for c := range s {
		if c.IsValid() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
	return out
}

// Mean devolve a média das notas presentes e false se não houver nenhuma.
func (s Scores) Mean() (float64, bool) {
	keys := s.Keys()
	if len(keys) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, c := range keys {
		sum += s[c]
	}
	return sum / float64(len(keys)), true
}
