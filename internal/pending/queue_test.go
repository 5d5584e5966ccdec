package pending

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/moodon/internal/chat"
	"github.com/raphaelgruber/moodon/internal/store"
)

func msg(id string, role chat.Role, at time.Time) chat.Message {
	return chat.Message{ID: id, Role: role, Text: id, CreatedAt: at, Pending: true}
}

func TestQueueAddCountClear(t *testing.T) {
	ctx := context.Background()
	q := New(ctx, store.New(store.NewMemoryBackend(), "", nil), nil)
	now := time.Now()

	assert.False(t, q.HasAny())
	assert.Equal(t, 0, q.Count(7))

	require.NoError(t, q.Add(ctx, 7, msg("tmp-u", chat.RoleUser, now), msg("tmp-a", chat.RoleAssistant, now.Add(time.Second))))
	require.NoError(t, q.Add(ctx, 9, msg("tmp-x", chat.RoleUser, now)))

	assert.True(t, q.HasAny())
	assert.Equal(t, 2, q.Count(7))
	assert.Equal(t, []int64{7, 9}, q.SessionIDs())

	require.NoError(t, q.Clear(ctx, 7))
	assert.Equal(t, 0, q.Count(7))
	assert.True(t, q.HasAny())

	require.NoError(t, q.Clear(ctx, 9))
	assert.False(t, q.HasAny())
	assert.Empty(t, q.SessionIDs())
}

func TestQueueEntriesIsACopy(t *testing.T) {
	ctx := context.Background()
	q := New(ctx, store.New(store.NewMemoryBackend(), "", nil), nil)
	require.NoError(t, q.Add(ctx, 1, msg("tmp-u", chat.RoleUser, time.Now())))

	entries := q.Entries(1)
	entries[0].Text = "changed"
	assert.Equal(t, "tmp-u", q.Entries(1)[0].Text)
}

func TestQueueSurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	backend, err := store.NewFileBackend(path, nil)
	require.NoError(t, err)

	now := time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)
	user := msg("tmp-u", chat.RoleUser, now)
	user.After = "41"
	assistant := msg("tmp-a", chat.RoleAssistant, now.Add(time.Second))

	q := New(ctx, store.New(backend, "", nil), nil)
	require.NoError(t, q.Add(ctx, 5, user, assistant))

	// a new process opens the same file
	reopened, err := store.NewFileBackend(path, nil)
	require.NoError(t, err)
	q2 := New(ctx, store.New(reopened, "", nil), nil)

	require.Equal(t, 2, q2.Count(5))
	got := q2.Entries(5)
	assert.Equal(t, "tmp-u", got[0].ID)
	assert.Equal(t, chat.RoleUser, got[0].Role)
	assert.True(t, got[0].Pending)
	assert.Equal(t, "41", got[0].After)
	assert.True(t, got[0].CreatedAt.Equal(now))
	assert.Equal(t, chat.RoleAssistant, got[1].Role)
}

func TestQueueCorruptStoreLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, store.DefaultPrefix+store.KeyPending, []byte(`{"1": "nope"`)))

	q := New(ctx, store.New(backend, "", nil), nil)
	assert.False(t, q.HasAny())
}

func TestQueueSkipsInvalidSessionKeys(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	raw := `{"abc": [{"id": "tmp-1", "role": "user", "created_at": "2025-01-01T00:00:00Z"}], "3": [{"id": 12, "sender": "bot", "created_at": "2025-01-01T00:00:00Z"}]}`
	require.NoError(t, backend.Set(ctx, store.DefaultPrefix+store.KeyPending, []byte(raw)))

	q := New(ctx, store.New(backend, "", nil), nil)
	assert.Equal(t, []int64{3}, q.SessionIDs())
	entries := q.Entries(3)
	require.Len(t, entries, 1)
	assert.Equal(t, "12", entries[0].ID)
	assert.Equal(t, chat.RoleAssistant, entries[0].Role)
}

func TestQueueClearLastSessionRemovesKey(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	q := New(ctx, store.New(backend, "", nil), nil)

	require.NoError(t, q.Add(ctx, 1, msg("tmp-u", chat.RoleUser, time.Now())))
	require.NoError(t, q.Clear(ctx, 1))

	_, err := backend.Get(ctx, store.DefaultPrefix+store.KeyPending)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
