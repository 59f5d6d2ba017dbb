package postgres

import (
	"context"
	"fmt"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ErrKeyNotFound is returned by SessionStore.Get for a missing key.
var ErrKeyNotFound = fmt.Errorf("postgres: session key not found: %w", shared.ErrNotFound)

// SessionStore keeps session values in the client_sessions table,
// one row per (profile, key).
type SessionStore struct {
	conn    *Connection
	profile string
}

// NewSessionStore creates a store scoped to profile.
func NewSessionStore(conn *Connection, profile string) *SessionStore {
	if profile == "" {
		profile = "default"
	}
	return &SessionStore{conn: conn, profile: profile}
}

// Get returns the stored value or ErrKeyNotFound.
func (s *SessionStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRow(ctx,
		`SELECT value FROM client_sessions WHERE profile = $1 AND key = $2`,
		s.profile, key,
	).Scan(&value)
	if err != nil {
		if IsNoRows(err) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("postgres: get session key %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a value.
func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO client_sessions (profile, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		s.profile, key, value,
	)
	if err != nil {
		return fmt.Errorf("postgres: set session key %s: %w", key, err)
	}
	return nil
}

// Delete removes the keys. Missing keys are ignored.
func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.conn.Exec(ctx,
		`DELETE FROM client_sessions WHERE profile = $1 AND key = ANY($2)`,
		s.profile, keys,
	)
	if err != nil {
		return fmt.Errorf("postgres: delete session keys: %w", err)
	}
	return nil
}
