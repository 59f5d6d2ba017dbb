package evaluation

import "context"

// Repository define as operações sobre avaliações oferecidas pela API,
// incluindo os relatórios de progresso calculados no servidor.
type Repository interface {
	ListByStudent(ctx context.Context, studentID string) ([]Evaluation, error)
	ListByClass(ctx context.Context, classID string) ([]Evaluation, error)
	GetByID(ctx context.Context, id string) (*Evaluation, error)
	Create(ctx context.Context, draft Draft) (*Evaluation, error)
	Update(ctx context.Context, id string, changes Changes) (*Evaluation, error)
	Delete(ctx context.Context, id string) error

	ProgressByStudent(ctx context.Context, studentID string) (ProgressReport, error)
	ProgressByClass(ctx context.Context, classID string) (ProgressReport, error)
}
