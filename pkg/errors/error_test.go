package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewCarriesDefaultMessage(t *testing.T) {
	err := New(UserNotFound)
	if err.Code != UserNotFound {
		t.Fatalf("expected code %d, got %d", UserNotFound, err.Code)
	}
	if err.Message != UserNotFound.Message() {
		t.Fatalf("expected default message %q, got %q", UserNotFound.Message(), err.Message)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, DatabaseError)
	if err.Code != DatabaseError {
		t.Fatalf("expected code %d, got %d", DatabaseError, err.Code)
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("wrapped error should match its cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("error string should include cause, got %q", err.Error())
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := Wrap(fmt.Errorf("mkdir failed"), SandboxSetupFailed)
	if !Is(err, SandboxSetupFailed) {
		t.Fatalf("Is should match the wrapped code")
	}
	if Is(err, WorkerPoolFull) {
		t.Fatalf("Is matched the wrong code")
	}
	if Is(fmt.Errorf("plain"), SandboxSetupFailed) {
		t.Fatalf("Is should not match a foreign error")
	}
}

func TestGetCodeFallsBackToInternal(t *testing.T) {
	if got := GetCode(fmt.Errorf("plain")); got != InternalServerError {
		t.Fatalf("expected fallback code %d, got %d", InternalServerError, got)
	}
	if got := GetCode(New(CodeMismatch)); got != CodeMismatch {
		t.Fatalf("expected code %d, got %d", CodeMismatch, got)
	}
}

func TestWithDetail(t *testing.T) {
	err := New(CodeTooLarge).WithDetail("limit_bytes", 65536)
	if err.Details["limit_bytes"] != 65536 {
		t.Fatalf("detail not stored: %v", err.Details)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{NotVerified, 403},
		{WindowExpired, 403},
		{UserNotFound, 404},
		{FunctionNotFound, 404},
		{WorkerPoolFull, 429},
		{SandboxSetupFailed, 503},
		{NoActiveChallenge, 400},
		{ChallengeExpired, 400},
		{CodeMismatch, 400},
		{CodeTooLarge, 400},
		{LanguageNotSupported, 400},
		{UsernameAlreadyExists, 400},
		{DatabaseError, 500},
	}
	for _, c := range cases {
		if got := c.code.HTTPStatus(); got != c.want {
			t.Fatalf("code %d: expected status %d, got %d", c.code, c.want, got)
		}
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("code", "required")
	if err.Code != ValidationFailed {
		t.Fatalf("expected code %d, got %d", ValidationFailed, err.Code)
	}
	if err.Details["field"] != "code" {
		t.Fatalf("missing field detail: %v", err.Details)
	}
}
