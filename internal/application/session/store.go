package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// Chaves gravadas no armazenamento durável.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store é o armazenamento chave-valor da sessão.
// Get devolve um erro que satisfaz shared.IsNotFound quando a chave não existe.
// Implementações: MemoryStore, persistence/file, persistence/redis e
// persistence/postgres.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// ErrKeyNotFound é devolvido pelo MemoryStore para chaves ausentes.
var ErrKeyNotFound = fmt.Errorf("session key not found: %w", shared.ErrNotFound)

// MemoryStore guarda a sessão apenas enquanto o processo vive.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore cria um MemoryStore vazio.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implementa Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Set implementa Store.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Delete implementa Store. Chaves ausentes são ignoradas.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.values, k)
	}
	s.mu.Unlock()
	return nil
}

// Len devolve o número de chaves gravadas.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
