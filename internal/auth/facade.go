// Package auth tracks the login state of the local user, gates protected
// actions and drives the account flows (signup, password reset, password
// change and account deletion).
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/raphaelgruber/moodon/internal/client"
	"github.com/raphaelgruber/moodon/internal/store"
)

// State is the authentication state of the local user.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// ErrLoginRequired is returned when a protected action is attempted while
// anonymous.
var ErrLoginRequired = errors.New("로그인이 필요합니다.")

// API is the subset of the REST client used for accounts.
type API interface {
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	SessionStatus(ctx context.Context) (*client.SessionStatus, error)
	SendSignupCode(ctx context.Context, email string) error
	VerifySignupCode(ctx context.Context, email, code string) error
	CompleteSignup(ctx context.Context, in client.SignupInput) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordReset(ctx context.Context, email, code string) error
	CompletePasswordReset(ctx context.Context, email, password, confirm string) error
	ChangePassword(ctx context.Context, oldPassword, password, confirm string) error
	DeleteAccount(ctx context.Context, password string) error
	ForgetCookies(ctx context.Context)
}

// Prompter shows the login prompt when a gated action is attempted.
type Prompter interface {
	PromptLogin()
}

// Navigator leaves the authenticated surface after logout.
type Navigator interface {
	ToLogin()
}

// Credentials identify a user. An empty Password marks the user as logged
// in without a network call, for flows the server already verified.
type Credentials struct {
	Email    string
	Password string
}

// Options configures a Facade.
type Options struct {
	Prompter  Prompter
	Navigator Navigator
	Logger    *slog.Logger
}

// Facade is the single source of the local authentication state. The
// in-memory flag is mirrored in the store. Safe for concurrent use.
type Facade struct {
	api       API
	store     *store.Store
	prompter  Prompter
	navigator Navigator
	logger    *slog.Logger

	mu    sync.RWMutex
	state State
	email string
}

// NewFacade creates a facade and restores the persisted mirror.
func NewFacade(ctx context.Context, api API, st *store.Store, opts Options) *Facade {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f := &Facade{
		api:       api,
		store:     st,
		prompter:  opts.Prompter,
		navigator: opts.Navigator,
		logger:    logger,
	}

	var loggedIn bool
	if st.GetJSON(ctx, store.KeyLoggedIn, &loggedIn) && loggedIn {
		f.state = StateAuthenticated
		st.GetJSON(ctx, store.KeyEmail, &f.email)
	}
	return f
}

// State returns the current state.
func (f *Facade) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Email returns the identity of the logged-in user, or "".
func (f *Facade) Email() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.email
}

// IsAuthenticated reports whether the user is considered logged in.
func (f *Facade) IsAuthenticated() bool {
	return f.State() == StateAuthenticated
}

// Login authenticates and records the identity.
func (f *Facade) Login(ctx context.Context, cred Credentials) error {
	email := strings.TrimSpace(cred.Email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if cred.Password != "" {
		if err := f.api.Login(ctx, email, cred.Password); err != nil {
			return err
		}
	}
	if err := f.setAuthenticated(ctx, email); err != nil {
		return err
	}
	f.logger.Info("logged in", "email", email, "verified", cred.Password != "")
	return nil
}

// Logout ends the session. The network call is best-effort; local user
// state is always cleared and the navigator is always invoked.
func (f *Facade) Logout(ctx context.Context) {
	if err := f.api.Logout(ctx); err != nil {
		f.logger.Warn("logout request failed", "error", err)
	}
	f.clearLocal(ctx)
	f.logger.Info("logged out")
	if f.navigator != nil {
		f.navigator.ToLogin()
	}
}

// SyncSession asks the server whether the session is still valid. Any
// failure demotes the local state to anonymous.
func (f *Facade) SyncSession(ctx context.Context) bool {
	status, err := f.api.SessionStatus(ctx)
	if err != nil {
		f.logger.Warn("session check failed", "error", err)
		f.demote(ctx)
		return false
	}
	if !status.IsAuthenticated {
		f.demote(ctx)
		return false
	}

	email := status.Email
	if email == "" {
		email = f.Email()
	}
	if err := f.setAuthenticated(ctx, email); err != nil {
		f.logger.Warn("failed to persist session", "error", err)
	}
	return true
}

// RequireLogin gates a protected action. When anonymous it prompts for login
// and returns false. It never performs network I/O.
func (f *Facade) RequireLogin() bool {
	if f.IsAuthenticated() {
		return true
	}
	if f.prompter != nil {
		f.prompter.PromptLogin()
	}
	return false
}

// ChangePassword validates the new password locally before calling the API.
func (f *Facade) ChangePassword(ctx context.Context, oldPassword, password, confirm string) error {
	if !f.RequireLogin() {
		return ErrLoginRequired
	}
	if err := ValidatePasswordPair(password, confirm); err != nil {
		return err
	}
	if err := f.api.ChangePassword(ctx, oldPassword, password, confirm); err != nil {
		return err
	}
	f.logger.Info("password changed")
	return nil
}

// DeleteAccount deletes the account and clears local state like Logout.
func (f *Facade) DeleteAccount(ctx context.Context, password string) error {
	if !f.RequireLogin() {
		return ErrLoginRequired
	}
	if password == "" {
		return errors.New("비밀번호를 입력해 주세요.")
	}
	if err := f.api.DeleteAccount(ctx, password); err != nil {
		return err
	}
	f.clearLocal(ctx)
	f.logger.Info("account deleted")
	if f.navigator != nil {
		f.navigator.ToLogin()
	}
	return nil
}

func (f *Facade) setAuthenticated(ctx context.Context, email string) error {
	f.mu.Lock()
	f.state = StateAuthenticated
	f.email = email
	f.mu.Unlock()

	if err := f.store.SetJSON(ctx, store.KeyLoggedIn, true); err != nil {
		return fmt.Errorf("persist login: %w", err)
	}
	if email == "" {
		return nil
	}
	if err := f.store.SetJSON(ctx, store.KeyEmail, email); err != nil {
		return fmt.Errorf("persist login: %w", err)
	}
	return nil
}

func (f *Facade) demote(ctx context.Context) {
	f.mu.Lock()
	f.state = StateAnonymous
	f.email = ""
	f.mu.Unlock()

	if err := f.store.Delete(ctx, store.KeyLoggedIn, store.KeyEmail); err != nil {
		f.logger.Warn("failed to clear login flag", "error", err)
	}
}

func (f *Facade) clearLocal(ctx context.Context) {
	f.mu.Lock()
	f.state = StateAnonymous
	f.email = ""
	f.mu.Unlock()

	f.api.ForgetCookies(ctx)
	if err := f.store.ClearUserState(ctx); err != nil {
		f.logger.Error("failed to clear local user state", "error", err)
	}
}
