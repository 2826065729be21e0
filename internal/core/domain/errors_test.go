package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestBackendError_IsSentinels(t *testing.T) {
	insufficient := &BackendError{Kind: KindValidation, Status: 402, Reason: ReasonInsufficientBalance}
	wrapped := fmt.Errorf("create task: %w", insufficient)

	if !errors.Is(wrapped, ErrInsufficientBalance) {
		t.Fatalf("expected wrapped error to match ErrInsufficientBalance")
	}
	if errors.Is(wrapped, ErrAccountExists) {
		t.Fatalf("insufficient balance must not match ErrAccountExists")
	}
	if KindOf(wrapped) != KindValidation {
		t.Fatalf("expected validation kind, got %q", KindOf(wrapped))
	}
}

func TestBackendError_Retryable(t *testing.T) {
	cases := map[ErrorKind]bool{
		KindTransport:    true,
		KindServer:       true,
		KindValidation:   false,
		KindUnauthorized: false,
		KindNotFound:     false,
	}
	for kind, want := range cases {
		if got := IsRetryable(&BackendError{Kind: kind}); got != want {
			t.Errorf("%s: expected retryable=%v, got %v", kind, want, got)
		}
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("plain errors are not retryable")
	}
}

func TestBackendError_Unauthorized(t *testing.T) {
	err := fmt.Errorf("verify: %w", &BackendError{Kind: KindUnauthorized, Status: 401})
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized")
	}
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected match with ErrNotAuthenticated")
	}
}
