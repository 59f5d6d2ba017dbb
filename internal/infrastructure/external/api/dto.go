// Package api implements the client for the assessment REST API.
// It handles authentication, students, classes, evaluations and the
// server-side progress reports.
package api

import (
	"time"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH DTOs
// ══════════════════════════════════════════════════════════════════════════════

// LoginRequestDTO is the body of POST /auth/login.
type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequestDTO is the body of POST /auth/register.
type RegisterRequestDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResponseDTO is returned by both auth endpoints.
type AuthResponseDTO struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// UserDTO represents the authenticated user.
type UserDTO struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	School  string `json:"school,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT DTOs
// ══════════════════════════════════════════════════════════════════════════════

// StudentDTO represents a student as returned by the API.
// ClassID and Teacher may arrive populated (objects) or as plain ids.
type StudentDTO struct {
	ID           string     `json:"id"`
	MongoID      string     `json:"_id"`
	Name         string     `json:"name"`
	Age          int        `json:"age"`
	Grade        string     `json:"grade"`
	ClassID      shared.Ref `json:"classId"`
	Observations string     `json:"observations"`
	Teacher      shared.Ref `json:"teacher"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// StudentPayloadDTO is the body for create and update.
// Nil fields are left out so updates stay partial.
type StudentPayloadDTO struct {
	Name         *string `json:"name,omitempty"`
	Age          *int    `json:"age,omitempty"`
	Grade        *string `json:"grade,omitempty"`
	ClassID      *string `json:"classId,omitempty"`
	Observations *string `json:"observations,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASS DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ClassDTO represents a class as returned by the API.
type ClassDTO struct {
	ID          string         `json:"id"`
	MongoID     string         `json:"_id"`
	Name        string         `json:"name"`
	Grade       string         `json:"grade"`
	Students    shared.RefList `json:"students"`
	Teacher     shared.Ref     `json:"teacher"`
	Description string         `json:"description,omitempty"`
}

// ClassPayloadDTO is the body for create and update.
type ClassPayloadDTO struct {
	Name        *string `json:"name,omitempty"`
	Grade       *string `json:"grade,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AddStudentRequestDTO is the body of POST /classes/{id}/students.
type AddStudentRequestDTO struct {
	StudentID string `json:"studentId"`
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION DTOs
// ══════════════════════════════════════════════════════════════════════════════

// EvaluationDTO represents an evaluation as returned by the API.
// Criterion values may be null; those criteria count as not evaluated.
type EvaluationDTO struct {
	ID              string              `json:"id"`
	MongoID         string              `json:"_id"`
	Student         shared.Ref          `json:"student"`
	Class           shared.Ref          `json:"class"`
	Teacher         shared.Ref          `json:"teacher"`
	Date            *time.Time          `json:"date,omitempty"`
	EvaluationData  map[string]*float64 `json:"evaluationData"`
	Strengths       string              `json:"strengths"`
	PointsToDevelop string              `json:"pointsToDevelop"`
}

// EvaluationPayloadDTO is the body of POST /evaluations.
type EvaluationPayloadDTO struct {
	Student         string             `json:"student"`
	Class           string             `json:"class,omitempty"`
	EvaluationData  map[string]float64 `json:"evaluationData"`
	Strengths       string             `json:"strengths"`
	PointsToDevelop string             `json:"pointsToDevelop"`
}

// EvaluationUpdateDTO is the body of PUT /evaluations/{id}.
type EvaluationUpdateDTO struct {
	EvaluationData  map[string]float64 `json:"evaluationData,omitempty"`
	Strengths       *string            `json:"strengths,omitempty"`
	PointsToDevelop *string            `json:"pointsToDevelop,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ProgressResponseDTO is returned by the progress endpoints.
type ProgressResponseDTO struct {
	ProgressData []CriterionProgressDTO `json:"progressData"`
}

// CriterionProgressDTO holds server-computed statistics for one criterion.
type CriterionProgressDTO struct {
	Criterion   string             `json:"criterion"`
	Average     float64            `json:"average"`
	Latest      float64            `json:"latest"`
	MaxValue    float64            `json:"maxValue"`
	MinValue    float64            `json:"minValue"`
	Evaluations []ProgressPointDTO `json:"evaluations"`
}

// ProgressPointDTO is one dated value of a criterion series.
type ProgressPointDTO struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR DTOs
// ══════════════════════════════════════════════════════════════════════════════

// APIErrorDTO is the error body sent by the API.
type APIErrorDTO struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// Text returns the best human-readable message in the body.
func (d APIErrorDTO) Text() string {
	if d.Message != "" {
		return d.Message
	}
	return d.Error
}
