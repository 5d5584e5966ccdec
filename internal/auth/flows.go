package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/raphaelgruber/moodon/internal/client"
)

// ErrEmptyCode is returned when a verification code is blank.
var ErrEmptyCode = errors.New("인증 번호를 입력해 주세요.")

// SignupProfile holds the optional profile fields sent with registration.
type SignupProfile struct {
	BirthDate string
	Gender    string
	MBTI      string
}

// CodeFlow is an email verification flow: request a code, verify it, then
// complete the action. Signup and password reset share it.
type CodeFlow struct {
	purpose string
	api     API
	limiter *CodeLimiter
	facade  *Facade
}

// Signup returns the registration flow.
func (f *Facade) Signup(limiter *CodeLimiter) *CodeFlow {
	return &CodeFlow{purpose: PurposeSignup, api: f.api, limiter: limiter, facade: f}
}

// PasswordReset returns the password reset flow.
func (f *Facade) PasswordReset(limiter *CodeLimiter) *CodeFlow {
	return &CodeFlow{purpose: PurposeReset, api: f.api, limiter: limiter, facade: f}
}

// SendCode requests a verification code, subject to the limiter.
func (c *CodeFlow) SendCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := c.limiter.Allow(ctx, c.purpose, email); err != nil {
		return err
	}

	var err error
	if c.purpose == PurposeSignup {
		err = c.api.SendSignupCode(ctx, email)
	} else {
		err = c.api.RequestPasswordReset(ctx, email)
	}
	if err != nil {
		return err
	}
	if err := c.limiter.Record(ctx, c.purpose, email); err != nil {
		c.facade.logger.Warn("failed to record code send", "purpose", c.purpose, "error", err)
	}
	c.facade.logger.Info("verification code sent", "purpose", c.purpose, "email", email)
	return nil
}

// Remaining returns the validity left on the last sent code.
func (c *CodeFlow) Remaining(ctx context.Context, email string) (time.Duration, error) {
	return c.limiter.Remaining(ctx, c.purpose, email)
}

// Verify checks a code. Expired codes are rejected without a network call.
func (c *CodeFlow) Verify(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyCode
	}
	if _, err := c.limiter.Remaining(ctx, c.purpose, email); err != nil {
		return err
	}
	if c.purpose == PurposeSignup {
		return c.api.VerifySignupCode(ctx, email, code)
	}
	return c.api.VerifyPasswordReset(ctx, email, code)
}

// CompleteSignup registers the account and logs in with it.
func (c *CodeFlow) CompleteSignup(ctx context.Context, email, password, confirm string, profile SignupProfile) error {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePasswordPair(password, confirm); err != nil {
		return err
	}
	in := client.SignupInput{
		Email:     email,
		Password:  password,
		Password2: confirm,
		BirthDate: profile.BirthDate,
		Gender:    profile.Gender,
		MBTI:      strings.ToUpper(profile.MBTI),
	}
	if err := c.api.CompleteSignup(ctx, in); err != nil {
		return err
	}
	c.forget(ctx, email)
	return c.facade.Login(ctx, Credentials{Email: email, Password: password})
}

// CompleteReset sets the new password.
func (c *CodeFlow) CompleteReset(ctx context.Context, email, password, confirm string) error {
	email = strings.TrimSpace(email)
	if err := ValidatePasswordPair(password, confirm); err != nil {
		return err
	}
	if err := c.api.CompletePasswordReset(ctx, email, password, confirm); err != nil {
		return err
	}
	c.forget(ctx, email)
	c.facade.logger.Info("password reset", "email", email)
	return nil
}

func (c *CodeFlow) forget(ctx context.Context, email string) {
	if err := c.limiter.Forget(ctx, c.purpose, email); err != nil {
		c.facade.logger.Warn("failed to clear code state", "purpose", c.purpose, "error", err)
	}
}
