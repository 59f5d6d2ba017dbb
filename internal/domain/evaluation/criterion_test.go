package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

func TestCriteria_DeclarationOrder(t *testing.T) {
	assert.Equal(t, []Criterion{
		Coordination, Balance, Strength, Laterality, Flexibility, Participation, Speed,
	}, Criteria())
	assert.Equal(t, "Equilíbrio", Balance.Label())
}

func TestParseCriterion(t *testing.T) {
	c, err := ParseCriterion("SPEED")
	require.NoError(t, err)
	assert.Equal(t, Speed, c)

	c, err = ParseCriterion("força")
	require.NoError(t, err)
	assert.Equal(t, Strength, c)

	_, err = ParseCriterion("agility")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestScores_Validate(t *testing.T) {
	assert.NoError(t, DefaultScores().Validate())

	missing := DefaultScores()
	delete(missing, Laterality)
	err := missing.Validate()
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
	assert.Contains(t, err.Error(), "Lateralidade")

	outOfRange := DefaultScores()
	outOfRange[Speed] = 5.5
	assert.ErrorIs(t, outOfRange.Validate(), shared.ErrValueOutOfRange)

	offStep := DefaultScores()
	offStep[Speed] = 2.25
	assert.True(t, shared.IsValidation(offStep.Validate()))
}

func TestDraft_Validate(t *testing.T) {
	d := NewDraft(" s1 ", "")
	assert.Equal(t, "s1", d.StudentID)
	assert.NoError(t, d.Validate())

	d.StudentID = ""
	assert.ErrorIs(t, d.Validate(), shared.ErrEmptyValue)
}

func TestScores_Mean(t *testing.T) {
	_, ok := Scores{}.Mean()
	assert.False(t, ok)

	m, ok := Scores{Speed: 2, Balance: 4}.Mean()
	require.True(t, ok)
	assert.Equal(t, 3.0, m)
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	e, ok := Latest([]Evaluation{{ID: "b", Date: day(9)}, {ID: "a", Date: day(2)}})
	require.True(t, ok)
	assert.Equal(t, "b", e.ID)
}
