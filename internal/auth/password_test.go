package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		want error
	}{
		{"ab1!", ErrPasswordLength},
		{"a1b2c", ErrPasswordLength},
		{"a1b2c3d4e5f6g7h8x", ErrPasswordLength},
		{"abcdxyzw", ErrPasswordVariety},
		{"13579024", ErrPasswordVariety},
		{"!?~@#$", ErrPasswordVariety},
		{"aaaaaa1", ErrPasswordRepeat},
		{"mood111x", ErrPasswordRepeat},
		{"ab1234", ErrPasswordSequential},
		{"mo321od!", ErrPasswordSequential},
		{"xyzmo0d!", ErrPasswordSequential},
		{"Qwer7!x", ErrPasswordKeyboard},
		{"m0asdf!", ErrPasswordKeyboard},
		{"mo0d!n9", nil},
		{"Mood2025!", nil},
		{"x7k#p2", nil},
		{"a1b2c3d4e5f6g7h8", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			err := ValidatePassword(tt.pw)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidatePasswordPair(t *testing.T) {
	assert.NoError(t, ValidatePasswordPair("Mood2025!", "Mood2025!"))
	assert.ErrorIs(t, ValidatePasswordPair("Mood2025!", "Mood2025?"), ErrPasswordMismatch)
	assert.ErrorIs(t, ValidatePasswordPair("abc", "abc"), ErrPasswordLength)
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", " user.name+tag@mood.co.kr "}
	invalid := []string{"", "user", "user@", "@example.com", "user@localhost", "User <user@example.com>", "user@example.", "a b@example.com"}

	for _, e := range valid {
		assert.NoError(t, ValidateEmail(e), e)
	}
	for _, e := range invalid {
		assert.ErrorIs(t, ValidateEmail(e), ErrInvalidEmail, e)
	}
}
