package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), "", nil)

	require.NoError(t, s.SetJSON(ctx, KeyEmail, "a@b.com"))

	var got string
	require.True(t, s.GetJSON(ctx, KeyEmail, &got))
	assert.Equal(t, "a@b.com", got)
}

func TestStorePrefixIsApplied(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := New(backend, "test:", nil)

	require.NoError(t, s.SetJSON(ctx, KeyLoggedIn, true))

	raw, err := backend.Get(ctx, "test:"+KeyLoggedIn)
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))

	_, err = backend.Get(ctx, KeyLoggedIn)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreMissingKey(t *testing.T) {
	s := New(NewMemoryBackend(), "", nil)
	var v map[string]any
	assert.False(t, s.GetJSON(context.Background(), "nope", &v))
}

func TestStoreCorruptValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := New(backend, "", nil)
	require.NoError(t, backend.Set(ctx, DefaultPrefix+KeyPending, []byte("{not json")))

	var v map[string]any
	assert.False(t, s.GetJSON(ctx, KeyPending, &v))
}

func TestClearUserState(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend(), "", nil)

	for _, k := range []string{KeyLoggedIn, KeyEmail, KeyPreferences, KeyFavorites, KeyPending, KeyCookies} {
		require.NoError(t, s.SetJSON(ctx, k, "x"))
	}
	require.NoError(t, s.SetJSON(ctx, KeyCodeLimiter, map[string]int{"a": 1}))

	require.NoError(t, s.ClearUserState(ctx))

	var v any
	for _, k := range []string{KeyLoggedIn, KeyEmail, KeyPreferences, KeyFavorites, KeyPending, KeyCookies} {
		assert.False(t, s.GetJSON(ctx, k, &v), "key %s should be cleared", k)
	}
	assert.True(t, s.GetJSON(ctx, KeyCodeLimiter, &v), "limiter state is not user-scoped")
}

func TestFileBackendPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	b, err := NewFileBackend(path, nil)
	require.NoError(t, err)
	s := New(b, "", nil)
	require.NoError(t, s.SetJSON(ctx, KeyFavorites, []string{"p1", "p2"}))

	reopened, err := NewFileBackend(path, nil)
	require.NoError(t, err)
	var favs []string
	require.True(t, New(reopened, "", nil).GetJSON(ctx, KeyFavorites, &favs))
	assert.Equal(t, []string{"p1", "p2"}, favs)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileBackendCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	b, err := NewFileBackend(path, nil)
	require.NoError(t, err)

	_, err = b.Get(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackendRejectsInvalidJSON(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "s.json"), nil)
	require.NoError(t, err)
	assert.Error(t, b.Set(context.Background(), "k", []byte("{")))
}

func TestFileBackendDeleteMissingIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	b, err := NewFileBackend(path, nil)
	require.NoError(t, err)

	require.NoError(t, b.Delete(context.Background(), "missing"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no write should happen for a no-op delete")
}
