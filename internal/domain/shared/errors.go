// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Policy errors: the request is well formed but breaks a roster rule.
	ErrPolicyViolation = errors.New("policy violation")

	// Authorization errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidCredentials is a 401 from login or registration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// External service errors
	ErrNetwork            = errors.New("network error")
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "roster", "evaluation", "session"
	Op      string // Operation that failed, e.g., "Enroll", "Create"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Roster domain errors
var (
	ErrAlreadyInClass      = NewDomainError("roster", "Enroll", ErrPolicyViolation, "aluno já está nesta turma")
	ErrEnrolledElsewhere   = NewDomainError("roster", "Enroll", ErrPolicyViolation, "aluno já está matriculado em outra turma")
	ErrNotInClass          = NewDomainError("roster", "Unenroll", ErrPolicyViolation, "aluno não pertence a esta turma")
	ErrRosterStudentAbsent = NewDomainError("roster", "Enroll", ErrNotFound, "aluno não encontrado")
	ErrRosterClassAbsent   = NewDomainError("roster", "Enroll", ErrNotFound, "turma não encontrada")
)

// Entity errors
var (
	ErrStudentNotFound    = NewDomainError("student", "Find", ErrNotFound, "aluno não encontrado")
	ErrClassNotFound      = NewDomainError("classroom", "Find", ErrNotFound, "turma não encontrada")
	ErrEvaluationNotFound = NewDomainError("evaluation", "Find", ErrNotFound, "avaliação não encontrada")
	ErrInvalidGrade       = NewDomainError("student", "Validate", ErrInvalidInput, "série inválida")
	ErrInvalidCriterion   = NewDomainError("evaluation", "Validate", ErrInvalidInput, "critério inválido")
	ErrInvalidScore       = NewDomainError("evaluation", "Validate", ErrValueOutOfRange, "nota deve estar entre 1 e 5 em passos de 0,5")
	ErrInvalidRole        = NewDomainError("user", "Validate", ErrInvalidInput, "perfil inválido")
)

// Session errors
var (
	ErrNotAuthenticated = NewDomainError("session", "Check", ErrUnauthorized, "sessão não iniciada")
	ErrRoleRequired     = NewDomainError("session", "Require", ErrForbidden, "acesso negado")
	ErrCorruptSession   = NewDomainError("session", "Load", ErrInvalidFormat, "dados de sessão corrompidos")
)

// userMessenger is implemented by errors that carry text meant for the user,
// such as a message returned by the remote API.
type userMessenger interface {
	UserMessage() string
}

// UserMessage extracts the text to show for err. Server-supplied messages and
// policy or validation messages are returned as-is; anything else yields fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var um userMessenger
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}

	var de *DomainError
	if errors.As(err, &de) && (IsPolicyViolation(de) || IsValidation(de) || IsNotFound(de)) {
		return de.Message
	}

	return fallback
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPolicyViolation checks if the error is a roster policy violation.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrPolicyViolation)
}

// IsSessionExpired checks if the error ended the current session.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsNetwork checks if the error is a transport or upstream failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
