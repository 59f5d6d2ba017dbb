// Package validation valida os formulários da aplicação antes de qualquer
// requisição, com mensagens em português.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ptbr_translations "github.com/go-playground/validator/v10/translations/pt_BR"

	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// Tags customizadas.
const (
	tagNotBlank  = "notblank"
	tagObjectID  = "objectid"
	tagGrade     = "grade"
	tagScore     = "score"
	tagCriterion = "criterion"
	tagTrimMin   = "trimmin"
)

var customMessages = map[string]string{
	tagNotBlank:  "{0} não pode ficar em branco",
	tagObjectID:  "{0} deve ser um ID válido",
	tagGrade:     "{0} deve ser uma série de 1º a 9º Ano",
	tagScore:     "{0} deve estar entre 1 e 5 em passos de 0,5",
	tagCriterion: "{0} não é um critério de avaliação",
	tagTrimMin:   "{0} deve ter pelo menos {1} caracteres",
}

// Validator valida structs anotadas com a tag `validate`.
// O nome exibido do campo vem da tag `label`.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New cria um Validator com as traduções pt_BR e as tags customizadas.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	locale := pt_BR.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("pt_BR")
	_ = ptbr_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return strings.ToLower(fld.Name)
	})

	_ = v.RegisterValidation(tagNotBlank, notBlank)
	_ = v.RegisterValidation(tagObjectID, objectID)
	_ = v.RegisterValidation(tagGrade, grade)
	_ = v.RegisterValidation(tagScore, score)
	_ = v.RegisterValidation(tagCriterion, criterion)
	_ = v.RegisterValidation(tagTrimMin, trimMin)

	for tag, msg := range customMessages {
		msg := msg
		_ = v.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, msg, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				out, err := t.T(fe.Tag(), fe.Field(), fe.Param())
				if err != nil {
					return fe.Error()
				}
				return out
			})
	}

	return &Validator{validate: v, translator: trans}
}

// Struct valida s. Devolve *Error com uma mensagem por campo inválido.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.WrapError("validation", "Struct", shared.ErrValidation, "formulário inválido", err)
	}
	out := &Error{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fe.Translate(v.translator),
		})
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// FieldError é a falha de um campo.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Error agrupa as falhas de um formulário.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	return "validation: " + e.UserMessage()
}

// UserMessage junta as mensagens dos campos para exibição.
func (e *Error) UserMessage() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Unwrap permite errors.Is(err, shared.ErrValidation).
func (e *Error) Unwrap() error {
	return shared.ErrValidation
}

// Field devolve a falha de um campo pelo nome exibido.
func (e *Error) Field(name string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldError{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// CUSTOM VALIDATORS
// ══════════════════════════════════════════════════════════════════════════════

func notBlank(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(fl.Field().String()) != ""
}

func objectID(fl validator.FieldLevel) bool {
	return fl.Field().Kind() == reflect.String && shared.IsObjectID(strings.TrimSpace(fl.Field().String()))
}

func grade(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, err := shared.ParseGrade(fl.Field().String())
	return err == nil
}

func score(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		return shared.IsValidScore(fl.Field().Float())
	default:
		return false
	}
}

func criterion(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	_, err := evaluation.ParseCriterion(fl.Field().String())
	return err == nil
}

// trimMin compara o tamanho em runas depois de aparar espaços.
func trimMin(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	n := 0
	for _, c := range fl.Param() {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	return len([]rune(strings.TrimSpace(fl.Field().String()))) >= n
}
