package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoCredential         = errors.New("no persisted credential")
	ErrIncompleteCredential = errors.New("credential must carry both token and snapshot")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrStaleRefresh         = errors.New("refresh result discarded: session changed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountExists        = errors.New("account already exists")
	ErrRoleAlreadySelected  = errors.New("role already selected")
	ErrRoleNotSelectable    = errors.New("role cannot be self-assigned")
	ErrInsufficientBalance  = errors.New("insufficient coin balance")
	ErrBelowMinimum         = errors.New("withdrawal below minimum")
	ErrDeadlinePassed       = errors.New("completion date must be in the future")
	ErrUnknownPackage       = errors.New("unknown coin package")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("access forbidden")
	ErrCredentialRetained   = errors.New("persisted credential could not be removed")
)

// ErrorKind is the closed taxonomy of backend failures.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindServer       ErrorKind = "server"
)

// Reason refines a validation failure.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonConflict            Reason = "conflict"
	ReasonBelowMinimum        Reason = "below_minimum"
	ReasonDeadline            Reason = "deadline"
)

// BackendError is the decoded result of any failed backend call.
type BackendError struct {
	Kind    ErrorKind
	Status  int
	Reason  Reason
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("backend %s (%d): %s", e.Kind, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("backend %s (%d)", e.Kind, e.Status)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinel that corresponds to the failure so
// callers do not need to inspect Kind and Reason directly.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrInsufficientBalance:
		return e.Reason == ReasonInsufficientBalance
	case ErrAccountExists:
		return e.Reason == ReasonConflict
	case ErrBelowMinimum:
		return e.Reason == ReasonBelowMinimum
	case ErrDeadlinePassed:
		return e.Reason == ReasonDeadline
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrNotAuthenticated:
		return e.Kind == KindUnauthorized
	}
	return false
}

// Retryable reports whether re-issuing the same request could succeed
// without the user re-authenticating or changing input.
func (e *BackendError) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindServer
}

// KindOf returns the taxonomy of err, or "" when err is not a backend error.
func KindOf(err error) ErrorKind {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsInsufficientBalance reports whether err should send the user to the
// purchase flow.
func IsInsufficientBalance(err error) bool { return errors.Is(err, ErrInsufficientBalance) }

// IsRetryable reports whether the user can sensibly retry after err.
func IsRetryable(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Retryable()
	}
	return false
}
