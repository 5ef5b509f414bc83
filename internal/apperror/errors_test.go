package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsCarryStatusAndType(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode int
		wantType string
	}{
		{"bad request", NewBadRequest("x"), http.StatusBadRequest, "bad_request"},
		{"not found", NewNotFound("x"), http.StatusNotFound, "not_found"},
		{"mismatch", NewPasswordMismatch("x"), http.StatusBadRequest, "password_mismatch"},
		{"invalid or expired", NewInvalidOrExpired("x"), http.StatusBadRequest, "invalid_or_expired"},
		{"delivery", NewDelivery("x", errors.New("smtp down")), http.StatusInternalServerError, "delivery_error"},
		{"too many", NewTooManyRequests("x"), http.StatusTooManyRequests, "too_many_requests"},
		{"internal", NewInternal(errors.New("db")), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if tt.err.Type != tt.wantType {
				t.Errorf("type = %q, want %q", tt.err.Type, tt.wantType)
			}
		})
	}
}

func TestSafeMessage_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewNotFound("Blog not found"))
	if got := SafeMessage(err); got != "Blog not found" {
		t.Errorf("SafeMessage = %q", got)
	}
	if got := SafeCode(err); got != http.StatusNotFound {
		t.Errorf("SafeCode = %d", got)
	}
	if !IsNotFound(err) {
		t.Error("expected IsNotFound to unwrap")
	}
}

func TestSafeMessage_PlainErrorIsGeneric(t *testing.T) {
	err := errors.New("Error 1146: Table 'users' doesn't exist")
	if got := SafeMessage(err); got != "an unexpected error occurred" {
		t.Errorf("leaked internal detail: %q", got)
	}
	if SafeCode(err) != http.StatusInternalServerError {
		t.Error("expected 500 for plain errors")
	}
}

func TestDeliveryUnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewDelivery("Error while sending OTP", cause)
	if !errors.Is(err, cause) {
		t.Error("expected delivery error to unwrap to its cause")
	}
}
