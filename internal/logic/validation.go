package logic

import (
	"regexp"
	"strings"

	pkgerrors "runbox/pkg/errors"
)

// Username: 3-32 chars, start with a letter, allow letters, numbers, dot, underscore, hyphen.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]{2,31}$`)

// Password: 8-128 chars, printable ASCII only.
var passwordPattern = regexp.MustCompile(`^[\x21-\x7E]{8,128}$`)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Verification codes are 6 chars from A-Z0-9, compared case-insensitively.
var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return pkgerrors.New(pkgerrors.InvalidUsername)
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return pkgerrors.New(pkgerrors.InvalidEmail)
	}
	return nil
}

func validatePassword(password string) error {
	if !passwordPattern.MatchString(password) {
		if len(password) < 8 {
			return pkgerrors.New(pkgerrors.PasswordTooWeak)
		}
		return pkgerrors.New(pkgerrors.InvalidPassword)
	}
	if !hasLetterAndNumber(password) {
		return pkgerrors.New(pkgerrors.PasswordTooWeak)
	}
	return nil
}

func validateCode(code string) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if !codePattern.MatchString(normalized) {
		return pkgerrors.New(pkgerrors.CodeMismatch).WithMessage("malformed verification code")
	}
	return nil
}

func hasLetterAndNumber(password string) bool {
	hasLetter := false
	hasNumber := false
	for i := 0; i < len(password); i++ {
		b := password[i]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') {
			hasLetter = true
		} else if b >= '0' && b <= '9' {
			hasNumber = true
		}
		if hasLetter && hasNumber {
			return true
		}
	}
	return false
}
