// Package file keeps the session in a JSON file under the user's config
// directory. It is the default backend for the CLI.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ErrKeyNotFound is returned by Get for a missing key.
var ErrKeyNotFound = fmt.Errorf("session key not found: %w", shared.ErrNotFound)

// DefaultPath returns <user config dir>/peassess/session.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "peassess", "session.json"), nil
}

// SessionStore stores every key of one profile in a single JSON object.
// Writes go to a temporary file that is renamed over the original.
type SessionStore struct {
	path    string
	profile string
	mu      sync.Mutex
}

// NewSessionStore creates a store backed by path.
func NewSessionStore(path, profile string) *SessionStore {
	if profile == "" {
		profile = "default"
	}
	return &SessionStore{path: path, profile: profile}
}

// Path returns the backing file.
func (s *SessionStore) Path() string {
	return s.path
}

// document maps profile -> key -> value.
type document map[string]map[string]string

func (s *SessionStore) load() (document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	doc := document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, shared.WrapError("session", "Load", shared.ErrInvalidFormat, "arquivo de sessão corrompido", err)
	}
	return doc, nil
}

func (s *SessionStore) save(doc document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Get returns the value or ErrKeyNotFound.
func (s *SessionStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := doc[s.profile][key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Set writes one value.
func (s *SessionStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		// A corrupt file is replaced on the next write.
		doc = document{}
	}
	if doc[s.profile] == nil {
		doc[s.profile] = make(map[string]string)
	}
	doc[s.profile][key] = value
	return s.save(doc)
}

// Delete removes keys. Deleting the last key of the last profile removes the file.
func (s *SessionStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return os.Remove(s.path)
	}
	values := doc[s.profile]
	if len(values) == 0 {
		return nil
	}
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		delete(doc, s.profile)
	}
	if len(doc) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	return s.save(doc)
}
