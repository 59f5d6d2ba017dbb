package api

import (
	"errors"
	"strings"

	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/domain/student"
	"github.com/edfisica/pe-assessment-hub/internal/domain/user"
)

// ErrNilDTO is returned when a nil DTO is passed to a mapper.
var ErrNilDTO = errors.New("nil DTO")

// Mapper converts between API DTOs and domain entities.
// Incoming data is never rejected for content: the server is the source of
// truth, so unknown grades or roles are kept as received.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

func pickID(id, mongoID string) string {
	if id = shared.NormalizeID(id); id != "" {
		return id
	}
	return shared.NormalizeID(mongoID)
}

func lenientGrade(raw string) shared.Grade {
	if g, err := shared.ParseGrade(raw); err == nil {
		return g
	}
	return shared.Grade(strings.TrimSpace(raw))
}

// ══════════════════════════════════════════════════════════════════════════════
// DTO → DOMAIN
// ══════════════════════════════════════════════════════════════════════════════

// UserFromDTO converts a UserDTO to a domain User.
func (m *Mapper) UserFromDTO(dto *UserDTO) (*user.User, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	role, err := user.ParseRole(dto.Role)
	if err != nil {
		role = user.Role(strings.TrimSpace(dto.Role))
	}
	return &user.User{
		ID:     pickID(dto.ID, dto.MongoID),
		Name:   dto.Name,
		Email:  dto.Email,
		Role:   role,
		School: dto.School,
	}, nil
}

// StudentFromDTO converts a StudentDTO to a domain Student.
func (m *Mapper) StudentFromDTO(dto *StudentDTO) (*student.Student, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	s := &student.Student{
		ID:           pickID(dto.ID, dto.MongoID),
		Name:         dto.Name,
		Age:          dto.Age,
		Grade:        lenientGrade(dto.Grade),
		ClassID:      dto.ClassID.String(),
		Observations: dto.Observations,
		TeacherID:    dto.Teacher.String(),
	}
	if dto.CreatedAt != nil {
		s.CreatedAt = *dto.CreatedAt
	}
	return s, nil
}

// StudentsFromDTOs converts a list of StudentDTOs.
func (m *Mapper) StudentsFromDTOs(dtos []StudentDTO) []student.Student {
	out := make([]student.Student, 0, len(dtos))
	for i := range dtos {
		if s, err := m.StudentFromDTO(&dtos[i]); err == nil {
			out = append(out, *s)
		}
	}
	return out
}

// ClassFromDTO converts a ClassDTO to a domain Class.
// Roster entries arrive either as ids or as populated student objects.
func (m *Mapper) ClassFromDTO(dto *ClassDTO) (*classroom.Class, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	ids := dto.Students.Strings()
	if ids == nil {
		ids = []string{}
	}
	return &classroom.Class{
		ID:          pickID(dto.ID, dto.MongoID),
		Name:        dto.Name,
		Grade:       lenientGrade(dto.Grade),
		StudentIDs:  ids,
		TeacherID:   dto.Teacher.String(),
		Description: dto.Description,
	}, nil
}

// ClassesFromDTOs converts a list of ClassDTOs.
func (m *Mapper) ClassesFromDTOs(dtos []ClassDTO) []classroom.Class {
	out := make([]classroom.Class, 0, len(dtos))
	for i := range dtos {
		if c, err := m.ClassFromDTO(&dtos[i]); err == nil {
			out = append(out, *c)
		}
	}
	return out
}

// EvaluationFromDTO converts an EvaluationDTO to a domain Evaluation.
// Null and unknown criteria are left out of the scores.
func (m *Mapper) EvaluationFromDTO(dto *EvaluationDTO) (*evaluation.Evaluation, error) {
	if dto == nil {
		return nil, ErrNilDTO
	}
	scores := make(evaluation.Scores, len(dto.EvaluationData))
	for key, v := range dto.EvaluationData {
		if v == nil {
			continue
		}
		c, err := evaluation.ParseCriterion(key)
		if err != nil {
			continue
		}
		scores[c] = *v
	}
	e := &evaluation.Evaluation{
		ID:              pickID(dto.ID, dto.MongoID),
		StudentID:       dto.Student.String(),
		ClassID:         dto.Class.String(),
		TeacherID:       dto.Teacher.String(),
		Scores:          scores,
		Strengths:       dto.Strengths,
		PointsToDevelop: dto.PointsToDevelop,
	}
	if dto.Date != nil {
		e.Date = *dto.Date
	}
	return e, nil
}

// EvaluationsFromDTOs converts a list of EvaluationDTOs.
func (m *Mapper) EvaluationsFromDTOs(dtos []EvaluationDTO) []evaluation.Evaluation {
	out := make([]evaluation.Evaluation, 0, len(dtos))
	for i := range dtos {
		if e, err := m.EvaluationFromDTO(&dtos[i]); err == nil {
			out = append(out, *e)
		}
	}
	return out
}

// ProgressFromDTO converts server-side progress statistics into a report.
func (m *Mapper) ProgressFromDTO(scope evaluation.Scope, dto *ProgressResponseDTO) (evaluation.ProgressReport, error) {
	if dto == nil {
		return evaluation.ProgressReport{}, ErrNilDTO
	}
	stats := make([]evaluation.CriterionStats, 0, len(dto.ProgressData))
	for _, p := range dto.ProgressData {
		c, err := evaluation.ParseCriterion(p.Criterion)
		if err != nil {
			continue
		}
		series := make([]evaluation.Point, 0, len(p.Evaluations))
		for _, pt := range p.Evaluations {
			series = append(series, evaluation.Point{Date: pt.Date, Value: pt.Value})
		}
		stats = append(stats, evaluation.CriterionStats{
			Criterion: c,
			Average:   p.Average,
			Latest:    p.Latest,
			Min:       p.MinValue,
			Max:       p.MaxValue,
			Count:     len(series),
			Series:    series,
		})
	}
	return evaluation.NewReport(scope, stats), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN → DTO
// ══════════════════════════════════════════════════════════════════════════════

// StudentPayloadFromDraft builds the create body for a student.
func (m *Mapper) StudentPayloadFromDraft(d student.Draft) StudentPayloadDTO {
	name := strings.TrimSpace(d.Name)
	grade := d.Grade.String()
	p := StudentPayloadDTO{
		Name:         &name,
		Age:          &d.Age,
		Grade:        &grade,
		Observations: &d.Observations,
	}
	if id := shared.NormalizeID(d.ClassID); id != "" {
		p.ClassID = &id
	}
	return p
}

// StudentPayloadFromChanges builds a partial update body for a student.
func (m *Mapper) StudentPayloadFromChanges(c student.Changes) StudentPayloadDTO {
	p := StudentPayloadDTO{
		Age:          c.Age,
		Observations: c.Observations,
	}
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		p.Name = &name
	}
	if c.Grade != nil {
		grade := c.Grade.String()
		p.Grade = &grade
	}
	if c.ClassID != nil {
		id := shared.NormalizeID(*c.ClassID)
		p.ClassID = &id
	}
	return p
}

// ClassPayloadFromDraft builds the create body for a class.
func (m *Mapper) ClassPayloadFromDraft(d classroom.Draft) ClassPayloadDTO {
	d = d.Normalized()
	grade := d.Grade.String()
	p := ClassPayloadDTO{Name: &d.Name, Grade: &grade}
	if d.Description != "" {
		p.Description = &d.Description
	}
	return p
}

// ClassPayloadFromChanges builds a partial update body for a class.
func (m *Mapper) ClassPayloadFromChanges(c classroom.Changes) ClassPayloadDTO {
	p := ClassPayloadDTO{Description: c.Description}
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		p.Name = &name
	}
	if c.Grade != nil {
		grade := c.Grade.String()
		p.Grade = &grade
	}
	return p
}

func scoresToWire(s evaluation.Scores) map[string]float64 {
	if len(s) == 0 {
		return nil
	}
	out := make(map[string]float64, len(s))
	for c, v := range s {
		out[string(c)] = v
	}
	return out
}

// EvaluationPayloadFromDraft builds the create body for an evaluation.
func (m *Mapper) EvaluationPayloadFromDraft(d evaluation.Draft) EvaluationPayloadDTO {
	d = d.Normalized()
	return EvaluationPayloadDTO{
		Student:         d.StudentID,
		Class:           d.ClassID,
		EvaluationData:  scoresToWire(d.Scores),
		Strengths:       d.Strengths,
		PointsToDevelop: d.PointsToDevelop,
	}
}

// EvaluationPayloadFromChanges builds a partial update body for an evaluation.
func (m *Mapper) EvaluationPayloadFromChanges(c evaluation.Changes) EvaluationUpdateDTO {
	return EvaluationUpdateDTO{
		EvaluationData:  scoresToWire(c.Scores),
		Strengths:       c.Strengths,
		PointsToDevelop: c.PointsToDevelop,
	}
}
