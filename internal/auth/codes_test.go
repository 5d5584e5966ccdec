package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/moodon/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLimiter(t *testing.T) (*CodeLimiter, *fakeClock, *store.Store) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)}
	st := store.New(store.NewMemoryBackend(), "", nil)
	return NewCodeLimiter(st, clock.now), clock, st
}

func TestCodeLimiterCooldownAndLockout(t *testing.T) {
	ctx := context.Background()
	l, clock, _ := newLimiter(t)
	const email = "user@example.com"

	for i := range MaxCodeSends {
		require.NoError(t, l.Allow(ctx, PurposeSignup, email), "send %d", i+1)
		require.NoError(t, l.Record(ctx, PurposeSignup, email))

		err := l.Allow(ctx, PurposeSignup, email)
		assert.ErrorIs(t, err, ErrCodeCooldown)
		clock.advance(CodeResendDelay)
	}

	assert.ErrorIs(t, l.Allow(ctx, PurposeSignup, email), ErrCodeLocked)
	clock.advance(CodeLockout - time.Second)
	assert.ErrorIs(t, l.Allow(ctx, PurposeSignup, email), ErrCodeLocked)

	clock.advance(time.Second)
	assert.NoError(t, l.Allow(ctx, PurposeSignup, email))
}

func TestCodeLimiterKeysByPurposeAndEmail(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLimiter(t)

	require.NoError(t, l.Record(ctx, PurposeSignup, "User@Example.com"))
	assert.ErrorIs(t, l.Allow(ctx, PurposeSignup, " user@example.com"), ErrCodeCooldown)
	assert.NoError(t, l.Allow(ctx, PurposeReset, "user@example.com"))
	assert.NoError(t, l.Allow(ctx, PurposeSignup, "other@example.com"))
}

func TestCodeLimiterRemaining(t *testing.T) {
	ctx := context.Background()
	l, clock, _ := newLimiter(t)
	const email = "user@example.com"

	_, err := l.Remaining(ctx, PurposeSignup, email)
	assert.ErrorIs(t, err, ErrCodeNotSent)

	require.NoError(t, l.Record(ctx, PurposeSignup, email))
	left, err := l.Remaining(ctx, PurposeSignup, email)
	require.NoError(t, err)
	assert.Equal(t, CodeValidity, left)

	clock.advance(CodeValidity - 30*time.Second)
	left, err = l.Remaining(ctx, PurposeSignup, email)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, left)

	clock.advance(30 * time.Second)
	_, err = l.Remaining(ctx, PurposeSignup, email)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestCodeLimiterSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	l, clock, st := newLimiter(t)
	const email = "user@example.com"

	for range MaxCodeSends {
		require.NoError(t, l.Record(ctx, PurposeReset, email))
		clock.advance(CodeResendDelay)
	}

	restarted := NewCodeLimiter(st, clock.now)
	assert.ErrorIs(t, restarted.Allow(ctx, PurposeReset, email), ErrCodeLocked)
}

func TestCodeLimiterIdleBlockResets(t *testing.T) {
	ctx := context.Background()
	l, clock, _ := newLimiter(t)
	const email = "user@example.com"

	for range MaxCodeSends - 1 {
		require.NoError(t, l.Record(ctx, PurposeSignup, email))
		clock.advance(CodeResendDelay)
	}
	clock.advance(CodeLockout)

	for range MaxCodeSends {
		require.NoError(t, l.Allow(ctx, PurposeSignup, email))
		require.NoError(t, l.Record(ctx, PurposeSignup, email))
		clock.advance(CodeResendDelay)
	}
}

func TestCodeLimiterForget(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLimiter(t)

	require.NoError(t, l.Record(ctx, PurposeSignup, "user@example.com"))
	require.NoError(t, l.Forget(ctx, PurposeSignup, "user@example.com"))
	assert.NoError(t, l.Allow(ctx, PurposeSignup, "user@example.com"))
	require.NoError(t, l.Forget(ctx, PurposeSignup, "nobody@example.com"))
}
