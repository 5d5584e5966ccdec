// Package store provides the durable, namespaced key-value store that holds
// user-scoped client state (login flag, identity, preferences, favorites,
// pending chat messages and session cookies).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound indicates the requested key does not exist.
// Use errors.Is() to check for it in calling code.
var ErrNotFound = errors.New("key not found")

// DefaultPrefix namespaces every key written by the client.
const DefaultPrefix = "moodon:"

// Well-known keys.
const (
	KeyLoggedIn    = "isLoggedIn"
	KeyEmail       = "userEmail"
	KeyPreferences = "userPreferences"
	KeyFavorites   = "favorites"
	KeyPending     = "chatPending"
	KeyCookies     = "cookies"
	KeyCodeLimiter = "verificationCodes"
)

// userScopedKeys are removed together by ClearUserState.
var userScopedKeys = []string{
	KeyLoggedIn,
	KeyEmail,
	KeyPreferences,
	KeyFavorites,
	KeyPending,
	KeyCookies,
}

// Backend is a raw byte-oriented key-value persistence layer.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close(ctx context.Context) error
}

// Store wraps a Backend with a key prefix and JSON helpers.
// Reads are best-effort: missing or corrupt values behave as absent.
type Store struct {
	backend Backend
	prefix  string
	logger  *slog.Logger
}

// New creates a store over backend. An empty prefix selects DefaultPrefix.
func New(backend Backend, prefix string, logger *slog.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, prefix: prefix, logger: logger}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// GetJSON decodes the value stored under key into dst.
// Returns false if the key is absent, unreadable or not valid JSON.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) bool {
	data, err := s.backend.Get(ctx, s.key(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("store read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("discarding corrupt store value", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON encodes value and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, s.key(key), data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.backend.Delete(ctx, full...); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}

// ClearUserState removes every user-scoped key in a single backend call.
func (s *Store) ClearUserState(ctx context.Context) error {
	return s.Delete(ctx, userScopedKeys...)
}

// Close releases the backend.
func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}
