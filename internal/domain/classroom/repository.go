package classroom

import "context"

// Repository define as operações sobre turmas oferecidas pela API.
// AddStudent e RemoveStudent devolvem a turma já atualizada pelo servidor.
type Repository interface {
	List(ctx context.Context) ([]Class, error)
	GetByID(ctx context.Context, id string) (*Class, error)
	Create(ctx context.Context, draft Draft) (*Class, error)
	Update(ctx context.Context, id string, changes Changes) (*Class, error)
	Delete(ctx context.Context, id string) error

	AddStudent(ctx context.Context, classID, studentID string) (*Class, error)
	RemoveStudent(ctx context.Context, classID, studentID string) (*Class, error)
}
