package student

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

func TestNewStudent(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr error
	}{
		{"valid", Draft{Name: " Ana ", Age: 10, Grade: shared.Grade5}, nil},
		{"valid with class", Draft{Name: "Ana", Age: 10, Grade: shared.Grade5, ClassID: "64a1f0c2e4b0a1b2c3d4e5f6"}, nil},
		{"blank name", Draft{Name: "  ", Age: 10, Grade: shared.Grade5}, shared.ErrEmptyValue},
		{"zero age", Draft{Name: "Ana", Grade: shared.Grade5}, shared.ErrValueOutOfRange},
		{"bad grade", Draft{Name: "Ana", Age: 10, Grade: "10º Ano"}, shared.ErrInvalidInput},
		{"malformed class id", Draft{Name: "Ana", Age: 10, Grade: shared.Grade5, ClassID: "turma-1"}, shared.ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStudent(tt.draft)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ana", s.Name)
			assert.False(t, s.CreatedAt.IsZero())
		})
	}
}

func TestStudent_Enrollment(t *testing.T) {
	s := Student{ID: "s1", ClassID: " c1"}

	assert.True(t, s.IsEnrolled())
	assert.True(t, s.EnrolledIn("c1"))
	assert.False(t, s.EnrolledElsewhere("c1"))
	assert.True(t, s.EnrolledElsewhere("c2"))

	s.ClassID = ""
	assert.False(t, s.IsEnrolled())
	assert.False(t, s.EnrolledElsewhere("c2"))
}

func TestChanges_Apply(t *testing.T) {
	s := Student{ID: "s1", Name: "Ana", Age: 10, Observations: "old"}

	assert.True(t, Changes{}.IsEmpty())

	updated := ObservationsChange("asma leve").Apply(s)
	assert.Equal(t, "asma leve", updated.Observations)
	assert.Equal(t, "Ana", updated.Name)
	assert.Equal(t, "old", s.Observations)
}

func TestFindByID(t *testing.T) {
	students := []Student{{ID: "a"}, {ID: "b"}}

	s, ok := FindByID(students, " b")
	require.True(t, ok)
	assert.Equal(t, "b", s.ID)

	_, ok = FindByID(students, "c")
	assert.False(t, ok)
	assert.Len(t, IndexByID(students), 2)
}
