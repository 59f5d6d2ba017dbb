package student

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Estes contratos são implementados pelo cliente da API externa
// (infrastructure/external/api). Não existe armazenamento local de alunos.
// ══════════════════════════════════════════════════════════════════════════════

// ListFilter restringe a listagem de alunos.
type ListFilter struct {
	// ClassID - apenas alunos desta turma (vazio = todos).
	ClassID string
}

// Repository define as operações sobre alunos.
type Repository interface {
	// List devolve os alunos visíveis ao usuário logado.
	List(ctx context.Context, filter ListFilter) ([]Student, error)

	// GetByID devolve um aluno.
	// Retorna um erro que satisfaz shared.IsNotFound se não existir.
	GetByID(ctx context.Context, id string) (*Student, error)

	// Create cadastra um aluno e devolve o registro criado.
	Create(ctx context.Context, draft Draft) (*Student, error)

	// Update aplica uma alteração parcial.
	Update(ctx context.Context, id string, changes Changes) (*Student, error)

	// Delete remove o aluno.
	Delete(ctx context.Context, id string) error
}
