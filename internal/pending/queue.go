// Package pending persists optimistically created chat messages until the
// server confirms them, so an in-flight send survives a restart.
package pending

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/raphaelgruber/moodon/internal/chat"
	"github.com/raphaelgruber/moodon/internal/store"
)

// Queue is a per-session buffer of pending messages mirrored to the store.
// Every mutation rewrites the whole map. Safe for concurrent use.
type Queue struct {
	store  *store.Store
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[int64][]chat.Message
}

// New creates a queue and loads its persisted state.
func New(ctx context.Context, st *store.Store, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{store: st, logger: logger}
	q.Reload(ctx)
	return q
}

// Reload replaces the in-memory buffer with the persisted one.
// Missing or corrupt data loads as empty.
func (q *Queue) Reload(ctx context.Context) {
	var raw map[string][]chat.Message
	if !q.store.GetJSON(ctx, store.KeyPending, &raw) {
		raw = nil
	}

	entries := make(map[int64][]chat.Message, len(raw))
	for k, msgs := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil || id <= 0 {
			q.logger.Warn("dropping pending entries with invalid session id", "key", k)
			continue
		}
		if len(msgs) > 0 {
			entries[id] = msgs
		}
	}

	q.mu.Lock()
	q.entries = entries
	q.mu.Unlock()
}

// Add appends messages to a session's buffer and persists.
func (q *Queue) Add(ctx context.Context, sessionID int64, msgs ...chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries[sessionID] = append(q.entries[sessionID], msgs...)
	return q.persistLocked(ctx)
}

// Clear removes a session's buffer and persists.
func (q *Queue) Clear(ctx context.Context, sessionID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.entries[sessionID]; !ok {
		return nil
	}
	delete(q.entries, sessionID)
	return q.persistLocked(ctx)
}

// Count returns the number of buffered messages for a session.
func (q *Queue) Count(sessionID int64) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries[sessionID])
}

// HasAny reports whether any session has buffered messages.
func (q *Queue) HasAny() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, msgs := range q.entries {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

// Entries returns a copy of a session's buffer.
func (q *Queue) Entries(sessionID int64) []chat.Message {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]chat.Message(nil), q.entries[sessionID]...)
}

// SessionIDs returns the sessions with buffered messages, ascending.
func (q *Queue) SessionIDs() []int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()

	ids := make([]int64, 0, len(q.entries))
	for id, msgs := range q.entries {
		if len(msgs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (q *Queue) persistLocked(ctx context.Context) error {
	if len(q.entries) == 0 {
		if err := q.store.Delete(ctx, store.KeyPending); err != nil {
			return fmt.Errorf("persist pending: %w", err)
		}
		return nil
	}

	raw := make(map[string][]chat.Message, len(q.entries))
	for id, msgs := range q.entries {
		raw[strconv.FormatInt(id, 10)] = msgs
	}
	if err := q.store.SetJSON(ctx, store.KeyPending, raw); err != nil {
		return fmt.Errorf("persist pending: %w", err)
	}
	return nil
}
