package client

import (
	"context"
	"fmt"
	"net/http"
)

// SignupInput is the final registration step.
type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	BirthDate string `json:"birth_date,omitempty"`
	Gender    string `json:"gender,omitempty"`
	MBTI      string `json:"mbti,omitempty"`
}

// SessionStatus asks the server whether the current cookies are authenticated.
func (c *Client) SessionStatus(ctx context.Context) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.Do(ctx, http.MethodGet, "/api/accounts/session/", nil, &out); err != nil {
		return nil, fmt.Errorf("session status: %w", err)
	}
	return &out, nil
}

// Login exchanges credentials for a session cookie.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/api/accounts/login/", body, nil); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Do(ctx, http.MethodPost, "/api/accounts/logout/", map[string]any{}, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// SendSignupCode emails a registration verification code.
func (c *Client) SendSignupCode(ctx context.Context, email string) error {
	return c.postDetail(ctx, "/api/accounts/register/email/", map[string]string{"email": email}, "send signup code")
}

// VerifySignupCode confirms a registration verification code.
func (c *Client) VerifySignupCode(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.postDetail(ctx, "/api/accounts/register/verify/", body, "verify signup code")
}

// CompleteSignup creates the account after email verification.
func (c *Client) CompleteSignup(ctx context.Context, in SignupInput) error {
	return c.postDetail(ctx, "/api/accounts/register/complete/", in, "complete signup")
}

// RequestPasswordReset emails a password reset code.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.postDetail(ctx, "/api/accounts/password/reset/email/", map[string]string{"email": email}, "request password reset")
}

// VerifyPasswordReset confirms a password reset code.
func (c *Client) VerifyPasswordReset(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.postDetail(ctx, "/api/accounts/password/reset/verify/", body, "verify password reset")
}

// CompletePasswordReset sets a new password after verification.
func (c *Client) CompletePasswordReset(ctx context.Context, email, password, confirm string) error {
	body := map[string]string{"email": email, "password": password, "password2": confirm}
	return c.postDetail(ctx, "/api/accounts/password/reset/complete/", body, "complete password reset")
}

// ChangePassword changes the password of the logged-in user.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, password, confirm string) error {
	body := map[string]string{"old_password": oldPassword, "password": password, "password2": confirm}
	return c.postDetail(ctx, "/api/accounts/password/change/", body, "change password")
}

// DeleteAccount deletes the logged-in user's account.
func (c *Client) DeleteAccount(ctx context.Context, password string) error {
	return c.postDetail(ctx, "/api/accounts/delete/", map[string]string{"password": password}, "delete account")
}

func (c *Client) postDetail(ctx context.Context, path string, body any, op string) error {
	if err := c.Do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
