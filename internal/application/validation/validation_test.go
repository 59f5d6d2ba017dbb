package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

func fieldErrors(t *testing.T, err error) *Error {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *Error, got %v", err)
	return verr
}

func TestRegisterForm(t *testing.T) {
	v := New()

	ok := RegisterForm{Name: "Ana Souza", Email: "ana@escola.br", Password: "segredo", ConfirmPassword: "segredo"}
	assert.NoError(t, v.Struct(ok))

	bad := RegisterForm{Name: "  ab ", Email: "ana", Password: "123", ConfirmPassword: "321", Role: "diretor"}
	err := v.Struct(bad)
	assert.ErrorIs(t, err, shared.ErrValidation)

	verr := fieldErrors(t, err)
	for _, field := range []string{"nome", "email", "senha", "confirmação de senha", "perfil"} {
		_, found := verr.Field(field)
		assert.True(t, found, "missing error for %s", field)
	}
	name, _ := verr.Field("nome")
	assert.Equal(t, "nome deve ter pelo menos 3 caracteres", name.Message)
	assert.Contains(t, shared.UserMessage(err, "fallback"), "nome deve ter pelo menos 3 caracteres")
}

func TestRegisterForm_NormalizedDefaultsRole(t *testing.T) {
	f := RegisterForm{Name: " Ana ", Email: " a@b.c "}.Normalized()
	assert.Equal(t, "Ana", f.Name)
	assert.Equal(t, "a@b.c", f.Email)
	assert.Equal(t, "professor", f.Role)
}

func TestStudentForm(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(StudentForm{Name: "João", Age: 10, Grade: "5"}))
	assert.NoError(t, v.Struct(StudentForm{Name: "João", Age: 10, Grade: "5º Ano", ClassID: "65f1a2b3c4d5e6f708091a2b"}))

	verr := fieldErrors(t, v.Struct(StudentForm{Name: " ", Age: 0, Grade: "10", ClassID: "turma-a"}))
	assert.Len(t, verr.Fields, 4)
	turma, _ := verr.Field("turma")
	assert.Equal(t, "objectid", turma.Tag)
	assert.Equal(t, "turma deve ser um ID válido", turma.Message)

	d := StudentForm{Name: " João ", Age: 10, Grade: "7"}.Draft()
	assert.Equal(t, "João", d.Name)
	assert.Equal(t, shared.Grade7, d.Grade)
	assert.NoError(t, d.Validate())
}

func TestClassForm(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(ClassForm{Name: "5A", Grade: "5º Ano"}))

	verr := fieldErrors(t, v.Struct(ClassForm{Name: " A ", Grade: ""}))
	_, nameErr := verr.Field("nome")
	_, gradeErr := verr.Field("série")
	assert.True(t, nameErr)
	assert.True(t, gradeErr)

	d := ClassForm{Name: " 5A ", Grade: "5"}.Draft()
	assert.Equal(t, "5A", d.Name)
	assert.Equal(t, shared.Grade5, d.Grade)
}

func TestEvaluationForm(t *testing.T) {
	v := New()

	f := NewEvaluationForm("s1", "c1")
	require.Len(t, f.Scores, 7)
	assert.NoError(t, v.Struct(f))
	assert.NoError(t, f.Draft().Validate())

	f.Scores["speed"] = 5.5
	verr := fieldErrors(t, v.Struct(f))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "score", verr.Fields[0].Tag)

	f.Scores["speed"] = 4.5
	f.Scores["stamina"] = 3
	verr = fieldErrors(t, v.Struct(f))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "criterion", verr.Fields[0].Tag)

	delete(f.Scores, "stamina")
	d := f.Draft()
	assert.Equal(t, 4.5, d.Scores[evaluation.Speed])
	assert.Equal(t, "s1", d.StudentID)
}

func TestEvaluationForm_EmptyScores(t *testing.T) {
	err := New().Struct(EvaluationForm{StudentID: "s1", Scores: map[string]float64{}})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
