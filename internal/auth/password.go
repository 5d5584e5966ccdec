package auth

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Password policy violations. Each message is shown to the user as is.
// Use errors.Is() to check for these errors in calling code.
var (
	ErrPasswordLength     = errors.New("비밀번호는 6~16자여야 합니다.")
	ErrPasswordVariety    = errors.New("영문, 숫자, 특수문자 중 2종류 이상을 포함해야 합니다.")
	ErrPasswordRepeat     = errors.New("동일한 문자를 3번 이상 연속으로 사용할 수 없습니다.")
	ErrPasswordSequential = errors.New("연속된 숫자나 영문은 사용할 수 없습니다.")
	ErrPasswordKeyboard   = errors.New("키보드 배열 순서의 문자열은 사용할 수 없습니다.")
	ErrPasswordMismatch   = errors.New("비밀번호가 일치하지 않습니다.")
)

const (
	minPasswordLen = 6
	maxPasswordLen = 16

	// PasswordSpecials are the special characters that count toward variety.
	PasswordSpecials = "!?~@#$%&^"
)

// keyboardPatterns are rejected as substrings, case-insensitively.
var keyboardPatterns = []string{
	"qwer", "wert", "erty", "rtyu", "tyui", "yuio", "uiop",
	"asdf", "sdfg", "dfgh", "fghj", "ghjk", "hjkl",
	"zxcv", "xcvb", "cvbn", "vbnm",
	"1qaz", "2wsx", "3edc", "qazw", "wsxe",
}

// ValidatePassword checks a candidate password against the account policy.
// Rules are checked in order and the first violation is returned.
func ValidatePassword(pw string) error {
	if n := utf8.RuneCountInString(pw); n < minPasswordLen || n > maxPasswordLen {
		return ErrPasswordLength
	}

	var letter, digit, special bool
	for _, r := range pw {
		switch {
		case isASCIILetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	if count(letter, digit, special) < 2 {
		return ErrPasswordVariety
	}

	low := strings.ToLower(pw)
	if hasRepeat(low, 3) {
		return ErrPasswordRepeat
	}
	if hasSequence(low, 3) {
		return ErrPasswordSequential
	}
	for _, p := range keyboardPatterns {
		if strings.Contains(low, p) {
			return ErrPasswordKeyboard
		}
	}
	return nil
}

// ValidatePasswordPair validates pw and checks that confirm matches it.
func ValidatePasswordPair(pw, confirm string) error {
	if err := ValidatePassword(pw); err != nil {
		return err
	}
	if pw != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func count(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// hasRepeat reports a run of n identical characters.
func hasRepeat(s string, n int) bool {
	rs := []rune(s)
	run := 1
	for i := 1; i < len(rs); i++ {
		if rs[i] == rs[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// hasSequence reports n consecutive ascending or descending digits or
// letters, like "123", "cba".
func hasSequence(s string, n int) bool {
	rs := []rune(s)
	up, down := 1, 1
	for i := 1; i < len(rs); i++ {
		a, b := rs[i-1], rs[i]
		if !sameClass(a, b) {
			up, down = 1, 1
			continue
		}
		switch b - a {
		case 1:
			up, down = up+1, 1
		case -1:
			up, down = 1, down+1
		default:
			up, down = 1, 1
		}
		if up >= n || down >= n {
			return true
		}
	}
	return false
}

func sameClass(a, b rune) bool {
	isDigit := func(r rune) bool { return r >= '0' && r <= '9' }
	isLower := func(r rune) bool { return r >= 'a' && r <= 'z' }
	return (isDigit(a) && isDigit(b)) || (isLower(a) && isLower(b))
}
