package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/moodon/internal/client"
	"github.com/raphaelgruber/moodon/internal/store"
)

type fakeAPI struct {
	calls     []string
	loginErr  error
	logoutErr error
	status    *client.SessionStatus
	statusErr error
	signup    client.SignupInput
}

func (f *fakeAPI) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeAPI) Login(_ context.Context, _, _ string) error {
	f.record("login")
	return f.loginErr
}

func (f *fakeAPI) Logout(context.Context) error {
	f.record("logout")
	return f.logoutErr
}

func (f *fakeAPI) SessionStatus(context.Context) (*client.SessionStatus, error) {
	f.record("status")
	return f.status, f.statusErr
}

func (f *fakeAPI) SendSignupCode(context.Context, string) error {
	f.record("signup-code")
	return nil
}

func (f *fakeAPI) VerifySignupCode(context.Context, string, string) error {
	f.record("signup-verify")
	return nil
}

func (f *fakeAPI) CompleteSignup(_ context.Context, in client.SignupInput) error {
	f.record("signup-complete")
	f.signup = in
	return nil
}

func (f *fakeAPI) RequestPasswordReset(context.Context, string) error {
	f.record("reset-code")
	return nil
}

func (f *fakeAPI) VerifyPasswordReset(context.Context, string, string) error {
	f.record("reset-verify")
	return nil
}

func (f *fakeAPI) CompletePasswordReset(context.Context, string, string, string) error {
	f.record("reset-complete")
	return nil
}

func (f *fakeAPI) ChangePassword(context.Context, string, string, string) error {
	f.record("change-password")
	return nil
}

func (f *fakeAPI) DeleteAccount(context.Context, string) error {
	f.record("delete-account")
	return nil
}

func (f *fakeAPI) ForgetCookies(context.Context) { f.record("forget-cookies") }

type countingPrompter struct{ n int }

func (p *countingPrompter) PromptLogin() { p.n++ }

type countingNavigator struct{ n int }

func (n *countingNavigator) ToLogin() { n.n++ }

type facadeHarness struct {
	api    *fakeAPI
	store  *store.Store
	prompt *countingPrompter
	nav    *countingNavigator
	facade *Facade
}

func newFacade(t *testing.T) *facadeHarness {
	t.Helper()
	h := &facadeHarness{
		api:    &fakeAPI{},
		store:  store.New(store.NewMemoryBackend(), "", nil),
		prompt: &countingPrompter{},
		nav:    &countingNavigator{},
	}
	h.facade = NewFacade(context.Background(), h.api, h.store, Options{Prompter: h.prompt, Navigator: h.nav})
	return h
}

func TestLoginWithPassword(t *testing.T) {
	ctx := context.Background()
	h := newFacade(t)

	require.NoError(t, h.facade.Login(ctx, Credentials{Email: "user@example.com", Password: "Mood2025!"}))
	assert.Equal(t, []string{"login"}, h.api.calls)
	assert.True(t, h.facade.IsAuthenticated())
	assert.Equal(t, "user@example.com", h.facade.Email())

	var loggedIn bool
	var email string
	require.True(t, h.store.GetJSON(ctx, store.KeyLoggedIn, &loggedIn))
	require.True(t, h.store.GetJSON(ctx, store.KeyEmail, &email))
	assert.True(t, loggedIn)
	assert.Equal(t, "user@example.com", email)

	// restored by a new facade over the same store
	again := NewFacade(ctx, h.api, h.store, Options{})
	assert.Equal(t, StateAuthenticated, again.State())
	assert.Equal(t, "user@example.com", again.Email())
}

func TestLoginMarkOnly(t *testing.T) {
	h := newFacade(t)
	require.NoError(t, h.facade.Login(context.Background(), Credentials{Email: "user@example.com"}))
	assert.Empty(t, h.api.calls)
	assert.True(t, h.facade.IsAuthenticated())
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	h := newFacade(t)
	h.api.loginErr = &client.APIError{Status: http.StatusBadRequest, Message: "이메일 또는 비밀번호가 올바르지 않습니다."}

	err := h.facade.Login(context.Background(), Credentials{Email: "user@example.com", Password: "wrong!1x"})
	require.Error(t, err)
	assert.Equal(t, "이메일 또는 비밀번호가 올바르지 않습니다.", client.UserMessage(err))
	assert.False(t, h.facade.IsAuthenticated())
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	h := newFacade(t)
	err := h.facade.Login(context.Background(), Credentials{Email: "nope", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Empty(t, h.api.calls)
}

func TestLogoutClearsStateEvenOnFailure(t *testing.T) {
	ctx := context.Background()
	h := newFacade(t)
	require.NoError(t, h.facade.Login(ctx, Credentials{Email: "user@example.com"}))
	require.NoError(t, h.store.SetJSON(ctx, store.KeyFavorites, []string{"p1"}))
	require.NoError(t, h.store.SetJSON(ctx, store.KeyPending, map[string]any{"1": []any{}}))
	h.api.logoutErr = errors.New("connection refused")

	h.facade.Logout(ctx)

	assert.False(t, h.facade.IsAuthenticated())
	assert.Empty(t, h.facade.Email())
	assert.Equal(t, 1, h.nav.n)
	assert.Equal(t, []string{"logout", "forget-cookies"}, h.api.calls)
	for _, key := range []string{store.KeyLoggedIn, store.KeyEmail, store.KeyFavorites, store.KeyPending} {
		var v any
		assert.False(t, h.store.GetJSON(ctx, key, &v), key)
	}
}

func TestSyncSession(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed refreshes identity", func(t *testing.T) {
		h := newFacade(t)
		h.api.status = &client.SessionStatus{IsAuthenticated: true, Email: "server@example.com"}
		assert.True(t, h.facade.SyncSession(ctx))
		assert.Equal(t, "server@example.com", h.facade.Email())
	})

	t.Run("rejected demotes", func(t *testing.T) {
		h := newFacade(t)
		require.NoError(t, h.facade.Login(ctx, Credentials{Email: "user@example.com"}))
		h.api.status = &client.SessionStatus{IsAuthenticated: false}
		assert.False(t, h.facade.SyncSession(ctx))
		assert.False(t, h.facade.IsAuthenticated())

		var loggedIn bool
		assert.False(t, h.store.GetJSON(ctx, store.KeyLoggedIn, &loggedIn))
	})

	t.Run("network failure fails closed", func(t *testing.T) {
		h := newFacade(t)
		require.NoError(t, h.facade.Login(ctx, Credentials{Email: "user@example.com"}))
		h.api.statusErr = errors.New("timeout")
		assert.False(t, h.facade.SyncSession(ctx))
		assert.False(t, h.facade.IsAuthenticated())
	})
}

func TestRequireLogin(t *testing.T) {
	h := newFacade(t)

	assert.False(t, h.facade.RequireLogin())
	assert.Equal(t, 1, h.prompt.n)
	assert.Empty(t, h.api.calls, "the gate never hits the network")

	require.NoError(t, h.facade.Login(context.Background(), Credentials{Email: "user@example.com"}))
	assert.True(t, h.facade.RequireLogin())
	assert.Equal(t, 1, h.prompt.n, "no prompt when authenticated")
}

func TestChangePasswordValidatesLocally(t *testing.T) {
	ctx := context.Background()
	h := newFacade(t)

	assert.ErrorIs(t, h.facade.ChangePassword(ctx, "old", "Mood2025!", "Mood2025!"), ErrLoginRequired)

	require.NoError(t, h.facade.Login(ctx, Credentials{Email: "user@example.com"}))
	assert.ErrorIs(t, h.facade.ChangePassword(ctx, "old", "aaaaaa1", "aaaaaa1"), ErrPasswordRepeat)
	assert.ErrorIs(t, h.facade.ChangePassword(ctx, "old", "Mood2025!", "Mood2026!"), ErrPasswordMismatch)
	assert.Empty(t, h.api.calls)

	require.NoError(t, h.facade.ChangePassword(ctx, "old", "Mood2025!", "Mood2025!"))
	assert.Equal(t, []string{"change-password"}, h.api.calls)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	h := newFacade(t)

	assert.ErrorIs(t, h.facade.DeleteAccount(ctx, "pw"), ErrLoginRequired)
	assert.Empty(t, h.api.calls)

	require.NoError(t, h.facade.Login(ctx, Credentials{Email: "user@example.com"}))
	require.NoError(t, h.facade.DeleteAccount(ctx, "Mood2025!"))
	assert.False(t, h.facade.IsAuthenticated())
	assert.Equal(t, 1, h.nav.n)
}

func TestSignupFlow(t *testing.T) {
	ctx := context.Background()
	h := newFacade(t)
	clock := &fakeClock{t: time.Now()}
	flow := h.facade.Signup(NewCodeLimiter(h.store, clock.now))
	const email = "new@example.com"

	assert.ErrorIs(t, flow.Verify(ctx, email, "ABCD1234"), ErrCodeNotSent)

	require.NoError(t, flow.SendCode(ctx, email))
	assert.ErrorIs(t, flow.SendCode(ctx, email), ErrCodeCooldown)

	left, err := flow.Remaining(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, CodeValidity, left)

	require.NoError(t, flow.Verify(ctx, email, "ABCD1234"))

	assert.ErrorIs(t, flow.CompleteSignup(ctx, email, "ab1234", "ab1234", SignupProfile{}), ErrPasswordSequential)
	require.NoError(t, flow.CompleteSignup(ctx, email, "Mood2025!", "Mood2025!", SignupProfile{MBTI: "infp", Gender: "female"}))

	assert.Equal(t, []string{"signup-code", "signup-verify", "signup-complete", "login"}, h.api.calls)
	assert.Equal(t, "INFP", h.api.signup.MBTI)
	assert.True(t, h.facade.IsAuthenticated())
}

func TestSignupRejectsExpiredCode(t *testing.T) {
	ctx := context.Background()
	h := newFacade(t)
	clock := &fakeClock{t: time.Now()}
	flow := h.facade.Signup(NewCodeLimiter(h.store, clock.now))

	require.NoError(t, flow.SendCode(ctx, "new@example.com"))
	clock.advance(CodeValidity)

	assert.ErrorIs(t, flow.Verify(ctx, "new@example.com", "ABCD1234"), ErrCodeExpired)
	assert.Equal(t, []string{"signup-code"}, h.api.calls)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	h := newFacade(t)
	flow := h.facade.PasswordReset(NewCodeLimiter(h.store, nil))

	require.NoError(t, flow.SendCode(ctx, "user@example.com"))
	require.NoError(t, flow.Verify(ctx, "user@example.com", "ABCD1234"))
	require.NoError(t, flow.CompleteReset(ctx, "user@example.com", "Mood2025!", "Mood2025!"))
	assert.Equal(t, []string{"reset-code", "reset-verify", "reset-complete"}, h.api.calls)
	assert.False(t, h.facade.IsAuthenticated())
}

func TestCookieJarRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemoryBackend(), "", nil)
	jar := NewCookieJar(st)

	assert.Empty(t, jar.LoadCookies(ctx))

	require.NoError(t, jar.SaveCookies(ctx, []*http.Cookie{
		{Name: "sessionid", Value: "abc"},
		{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)},
	}))
	got := jar.LoadCookies(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "sessionid", got[0].Name)
	assert.Equal(t, "abc", got[0].Value)

	require.NoError(t, jar.SaveCookies(ctx, nil))
	assert.Empty(t, jar.LoadCookies(ctx))
}
