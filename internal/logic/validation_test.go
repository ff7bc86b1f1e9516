package logic

import (
	"testing"

	pkgerrors "runbox/pkg/errors"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"alice", "bob.smith", "a1b", "user_name-01"}
	for _, u := range valid {
		if err := validateUsername(u); err != nil {
			t.Fatalf("username %q should be valid: %v", u, err)
		}
	}

	invalid := []string{"", "ab", "1alice", "_alice", "has space", "x"}
	for _, u := range invalid {
		if err := validateUsername(u); err == nil {
			t.Fatalf("username %q should be rejected", u)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := validateEmail("alice@example.com"); err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}
	for _, e := range []string{"", "alice", "alice@", "@example.com", "a b@example.com"} {
		if err := validateEmail(e); err == nil {
			t.Fatalf("email %q should be rejected", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := validatePassword("s3curePass"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := validatePassword("short1"); !pkgerrors.Is(err, pkgerrors.PasswordTooWeak) {
		t.Fatalf("short password: expected PasswordTooWeak, got %v", err)
	}
	if err := validatePassword("allletters"); !pkgerrors.Is(err, pkgerrors.PasswordTooWeak) {
		t.Fatalf("letters-only password: expected PasswordTooWeak, got %v", err)
	}
	if err := validatePassword("12345678"); !pkgerrors.Is(err, pkgerrors.PasswordTooWeak) {
		t.Fatalf("digits-only password: expected PasswordTooWeak, got %v", err)
	}
}

func TestValidateCode(t *testing.T) {
	if err := validateCode("A1B2C3"); err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
	if err := validateCode("a1b2c3"); err != nil {
		t.Fatalf("lowercase code should normalize: %v", err)
	}
	if err := validateCode(" a1b2c3 "); err != nil {
		t.Fatalf("surrounding spaces should be trimmed: %v", err)
	}
	for _, c := range []string{"", "A1B2C", "A1B2C3D", "A1B2C!"} {
		if err := validateCode(c); err == nil {
			t.Fatalf("code %q should be rejected", c)
		}
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 32; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 chars, got %q", code)
		}
		if err := validateCode(code); err != nil {
			t.Fatalf("generated code %q failed validation: %v", code, err)
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("codes are not random")
	}
}
