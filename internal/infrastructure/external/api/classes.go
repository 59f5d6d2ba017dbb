package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/edfisica/pe-assessment-hub/internal/domain/classroom"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLASS OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ClassesAPI implements classroom.Repository over the /classes endpoints.
type ClassesAPI struct {
	c *Client
}

var _ classroom.Repository = (*ClassesAPI)(nil)

var classKeys = []string{"data", "class"}

func classPath(id string) string {
	return "/classes/" + url.PathEscape(shared.NormalizeID(id))
}

// List fetches all classes of the current user.
func (a *ClassesAPI) List(ctx context.Context) ([]classroom.Class, error) {
	dtos, err := call[[]ClassDTO](ctx, a.c, http.MethodGet, "/classes", "/classes", nil, "data", "classes")
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return a.c.mapper.ClassesFromDTOs(dtos), nil
}

// GetByID fetches a single class with its roster.
func (a *ClassesAPI) GetByID(ctx context.Context, id string) (*classroom.Class, error) {
	dto, err := call[ClassDTO](ctx, a.c, http.MethodGet, "/classes/{id}", classPath(id), nil, classKeys...)
	if err != nil {
		return nil, fmt.Errorf("get class %s: %w", id, err)
	}
	return a.c.mapper.ClassFromDTO(&dto)
}

// Create registers a class.
func (a *ClassesAPI) Create(ctx context.Context, draft classroom.Draft) (*classroom.Class, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	body := a.c.mapper.ClassPayloadFromDraft(draft)
	dto, err := call[ClassDTO](ctx, a.c, http.MethodPost, "/classes", "/classes", body, classKeys...)
	if err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	return a.c.mapper.ClassFromDTO(&dto)
}

// Update sends a partial update.
func (a *ClassesAPI) Update(ctx context.Context, id string, changes classroom.Changes) (*classroom.Class, error) {
	body := a.c.mapper.ClassPayloadFromChanges(changes)
	dto, err := call[ClassDTO](ctx, a.c, http.MethodPut, "/classes/{id}", classPath(id), body, classKeys...)
	if err != nil {
		return nil, fmt.Errorf("update class %s: %w", id, err)
	}
	return a.c.mapper.ClassFromDTO(&dto)
}

// Delete removes a class.
func (a *ClassesAPI) Delete(ctx context.Context, id string) error {
	if _, err := a.c.doRequest(ctx, http.MethodDelete, "/classes/{id}", classPath(id), nil); err != nil {
		return fmt.Errorf("delete class %s: %w", id, err)
	}
	return nil
}

// AddStudent enrolls a student and returns the class as updated by the server.
func (a *ClassesAPI) AddStudent(ctx context.Context, classID, studentID string) (*classroom.Class, error) {
	body := AddStudentRequestDTO{StudentID: shared.NormalizeID(studentID)}
	dto, err := call[ClassDTO](ctx, a.c, http.MethodPost, "/classes/{id}/students", classPath(classID)+"/students", body, classKeys...)
	if err != nil {
		return nil, fmt.Errorf("add student %s to class %s: %w", studentID, classID, err)
	}
	return a.c.mapper.ClassFromDTO(&dto)
}

// RemoveStudent unenrolls a student and returns the updated class.
func (a *ClassesAPI) RemoveStudent(ctx context.Context, classID, studentID string) (*classroom.Class, error) {
	path := classPath(classID) + "/students/" + url.PathEscape(shared.NormalizeID(studentID))
	dto, err := call[ClassDTO](ctx, a.c, http.MethodDelete, "/classes/{id}/students/{studentId}", path, nil, classKeys...)
	if err != nil {
		return nil, fmt.Errorf("remove student %s from class %s: %w", studentID, classID, err)
	}
	return a.c.mapper.ClassFromDTO(&dto)
}
