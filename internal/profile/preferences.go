// Package profile keeps the user's survey preferences and favorite products
// in the local store, mirroring favorites with the server.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/moodon/internal/store"
)

// MaxStyles is the number of styles a user may pick.
const MaxStyles = 3

// Preference validation errors.
var (
	ErrTooManyStyles = errors.New("스타일은 최대 3개까지 선택할 수 있습니다.")
	ErrInvalidMBTI   = errors.New("MBTI 형식이 올바르지 않습니다.")
	ErrInvalidGender = errors.New("성별 값이 올바르지 않습니다.")
	ErrInvalidBirth  = errors.New("생년월일 형식이 올바르지 않습니다. (YYYY-MM-DD)")
)

// Genders accepted by the survey.
var Genders = []string{"male", "female", "other"}

// Preferences are the answers of the preference survey.
type Preferences struct {
	Gender    string   `json:"gender,omitempty" yaml:"gender,omitempty"`
	Birthdate string   `json:"birthdate,omitempty" yaml:"birthdate,omitempty"`
	MBTI      string   `json:"mbti,omitempty" yaml:"mbti,omitempty"`
	Styles    []string `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// Normalize trims fields, uppercases MBTI and drops blank or duplicate styles.
func (p *Preferences) Normalize() {
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	p.Birthdate = strings.TrimSpace(p.Birthdate)
	p.MBTI = strings.ToUpper(strings.TrimSpace(p.MBTI))

	seen := make(map[string]bool, len(p.Styles))
	styles := p.Styles[:0]
	for _, s := range p.Styles {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		styles = append(styles, s)
	}
	p.Styles = styles
}

// Validate checks every set field. Empty fields are allowed.
func (p Preferences) Validate(now time.Time) error {
	if len(p.Styles) > MaxStyles {
		return ErrTooManyStyles
	}
	if p.MBTI != "" && !validMBTI(p.MBTI) {
		return ErrInvalidMBTI
	}
	if p.Gender != "" {
		ok := false
		for _, g := range Genders {
			if p.Gender == g {
				ok = true
				break
			}
		}
		if !ok {
			return ErrInvalidGender
		}
	}
	if p.Birthdate != "" {
		d, err := time.Parse(time.DateOnly, p.Birthdate)
		if err != nil || d.After(now) {
			return ErrInvalidBirth
		}
	}
	return nil
}

func validMBTI(s string) bool {
	if len(s) != 4 {
		return false
	}
	pairs := [4]string{"EI", "SN", "TF", "JP"}
	for i, pair := range pairs {
		if !strings.ContainsRune(pair, rune(s[i])) {
			return false
		}
	}
	return true
}

// LoadPreferences returns the stored preferences. Missing or corrupt data
// loads as empty.
func LoadPreferences(ctx context.Context, st *store.Store) Preferences {
	var p Preferences
	if !st.GetJSON(ctx, store.KeyPreferences, &p) {
		return Preferences{}
	}
	return p
}

// SavePreferences normalizes, validates and stores preferences.
func SavePreferences(ctx context.Context, st *store.Store, p Preferences) (Preferences, error) {
	p.Normalize()
	if err := p.Validate(time.Now()); err != nil {
		return p, err
	}
	if err := st.SetJSON(ctx, store.KeyPreferences, p); err != nil {
		return p, fmt.Errorf("save preferences: %w", err)
	}
	return p, nil
}
