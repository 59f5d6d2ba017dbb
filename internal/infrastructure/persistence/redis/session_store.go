package redis

import (
	"context"
	"fmt"
	"time"
)

// KeyPrefix namespaces every session key.
const KeyPrefix = "peassess:session:"

// SessionKey builds the Redis key for a session value.
// The default profile keeps the short form peassess:session:<key>.
func SessionKey(profile, key string) string {
	if profile == "" || profile == "default" {
		return KeyPrefix + key
	}
	return KeyPrefix + profile + ":" + key
}

// SessionStore keeps the session values in Redis.
// A positive TTL makes the stored login expire on its own.
type SessionStore struct {
	cache   *Cache
	profile string
	ttl     time.Duration
}

// NewSessionStore creates a store scoped to profile.
func NewSessionStore(cache *Cache, profile string, ttl time.Duration) *SessionStore {
	if ttl < 0 {
		ttl = 0
	}
	return &SessionStore{cache: cache, profile: profile, ttl: ttl}
}

// Get returns the value or ErrCacheMiss.
func (s *SessionStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.cache.GetString(ctx, SessionKey(s.profile, key))
	if err != nil {
		return "", fmt.Errorf("redis: get session key %s: %w", key, err)
	}
	return v, nil
}

// Set stores a value.
func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	if err := s.cache.SetString(ctx, SessionKey(s.profile, key), value, s.ttl); err != nil {
		return fmt.Errorf("redis: set session key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in a single DEL.
func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, SessionKey(s.profile, k))
	}
	if err := s.cache.Delete(ctx, full...); err != nil {
		return fmt.Errorf("redis: delete session keys: %w", err)
	}
	return nil
}
