package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raphaelgruber/moodon/internal/store"
)

// Verification code limits.
const (
	MaxCodeSends    = 5
	CodeLockout     = 10 * time.Minute
	CodeResendDelay = 10 * time.Second
	CodeValidity    = 180 * time.Second
)

// Code purposes.
const (
	PurposeSignup = "signup"
	PurposeReset  = "reset"
)

// Code limiter errors.
var (
	ErrCodeLocked   = errors.New("인증 번호 요청이 5회를 초과했습니다. 10분 후 다시 시도해 주세요.")
	ErrCodeCooldown = errors.New("잠시 후 다시 요청해 주세요.")
	ErrCodeExpired  = errors.New("인증 시간이 만료되었습니다. 인증 번호를 다시 요청해 주세요.")
	ErrCodeNotSent  = errors.New("먼저 인증 번호를 요청해 주세요.")
)

// codeState tracks one (purpose, email) pair.
type codeState struct {
	Count     int       `json:"count"`
	LastSent  time.Time `json:"last_sent"`
	ExpiresAt time.Time `json:"expires_at"`
	LockUntil time.Time `json:"lock_until,omitzero"`
}

// CodeLimiter rate-limits verification code requests per purpose and email.
// State lives in the store so limits survive restarts.
type CodeLimiter struct {
	store *store.Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewCodeLimiter creates a limiter. A nil now uses time.Now.
func NewCodeLimiter(st *store.Store, now func() time.Time) *CodeLimiter {
	if now == nil {
		now = time.Now
	}
	return &CodeLimiter{store: st, now: now}
}

func codeKey(purpose, email string) string {
	return purpose + ":" + NormalizeEmail(email)
}

func (l *CodeLimiter) load(ctx context.Context) map[string]codeState {
	states := map[string]codeState{}
	if !l.store.GetJSON(ctx, store.KeyCodeLimiter, &states) || states == nil {
		return map[string]codeState{}
	}
	return states
}

func (l *CodeLimiter) save(ctx context.Context, states map[string]codeState) error {
	if err := l.store.SetJSON(ctx, store.KeyCodeLimiter, states); err != nil {
		return fmt.Errorf("save code limiter: %w", err)
	}
	return nil
}

// Allow reports whether a new code may be requested now. Exceeding the
// per-block limit starts the lockout.
func (l *CodeLimiter) Allow(ctx context.Context, purpose, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	states := l.load(ctx)
	key := codeKey(purpose, email)
	st := states[key]
	st = resetIfStale(st, now)

	if now.Before(st.LockUntil) {
		return ErrCodeLocked
	}
	if !st.LastSent.IsZero() {
		if wait := st.LastSent.Add(CodeResendDelay).Sub(now); wait > 0 {
			return fmt.Errorf("%w (%d초)", ErrCodeCooldown, int(wait.Round(time.Second)/time.Second))
		}
	}
	if st.Count >= MaxCodeSends {
		st.LockUntil = now.Add(CodeLockout)
		states[key] = st
		if err := l.save(ctx, states); err != nil {
			return err
		}
		return ErrCodeLocked
	}
	return nil
}

// Record registers a successful send and starts the code validity window.
func (l *CodeLimiter) Record(ctx context.Context, purpose, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	states := l.load(ctx)
	key := codeKey(purpose, email)
	st := resetIfStale(states[key], now)
	st.Count++
	st.LastSent = now
	st.ExpiresAt = now.Add(CodeValidity)
	states[key] = st
	return l.save(ctx, states)
}

// Remaining returns how long the last sent code stays valid.
// It is ErrCodeNotSent when no code was sent and ErrCodeExpired once the
// window closed.
func (l *CodeLimiter) Remaining(ctx context.Context, purpose, email string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.load(ctx)[codeKey(purpose, email)]
	if !ok || st.ExpiresAt.IsZero() {
		return 0, ErrCodeNotSent
	}
	left := st.ExpiresAt.Sub(l.now())
	if left <= 0 {
		return 0, ErrCodeExpired
	}
	return left, nil
}

// Forget drops the state for a pair after the flow completed.
func (l *CodeLimiter) Forget(ctx context.Context, purpose, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	states := l.load(ctx)
	key := codeKey(purpose, email)
	if _, ok := states[key]; !ok {
		return nil
	}
	delete(states, key)
	return l.save(ctx, states)
}

// resetIfStale starts a fresh block once a lockout ended or the last send
// is older than the lockout window.
func resetIfStale(st codeState, now time.Time) codeState {
	lockEnded := !st.LockUntil.IsZero() && !now.Before(st.LockUntil)
	idle := !st.LastSent.IsZero() && now.Sub(st.LastSent) >= CodeLockout
	if lockEnded || (idle && st.LockUntil.IsZero()) {
		st.Count = 0
		st.LockUntil = time.Time{}
	}
	return st
}
