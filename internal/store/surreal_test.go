//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startSurreal(t *testing.T) *SurrealBackend {
	t.Helper()
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start SurrealDB container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "8000")
	require.NoError(t, err)

	backend, err := NewSurrealBackend(ctx, SurrealConfig{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, port.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	require.NoError(t, err, "connect to SurrealDB")
	t.Cleanup(func() { _ = backend.Close(ctx) })
	return backend
}

func TestSurrealBackend(t *testing.T) {
	backend := startSurreal(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := New(backend, "it:", nil)

	t.Run("missing key", func(t *testing.T) {
		_, err := backend.Get(ctx, "it:missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.SetJSON(ctx, KeyEmail, "user@example.com"))
		var email string
		require.True(t, s.GetJSON(ctx, KeyEmail, &email))
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.SetJSON(ctx, KeyLoggedIn, false))
		require.NoError(t, s.SetJSON(ctx, KeyLoggedIn, true))
		var v bool
		require.True(t, s.GetJSON(ctx, KeyLoggedIn, &v))
		assert.True(t, v)
	})

	t.Run("clear user state", func(t *testing.T) {
		require.NoError(t, s.SetJSON(ctx, KeyPending, map[string]any{"1": []any{}}))
		require.NoError(t, s.ClearUserState(ctx))

		var v any
		assert.False(t, s.GetJSON(ctx, KeyPending, &v))
		assert.False(t, s.GetJSON(ctx, KeyEmail, &v))
	})
}
