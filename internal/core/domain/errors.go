package domain

import "errors"

// Store-level failures.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrConcurrencyConflict = errors.New("concurrency conflict: record was modified or removed")
	ErrPersistence         = errors.New("persistence failure")
	// ErrDuplicate is reported when a unique index (users.username) rejects a
	// commit. It is always accompanied by ErrPersistence.
	ErrDuplicate = errors.New("duplicate record")
)

var ErrAuthService = errors.New("auth service failure")

// Outcomes surfaced to the host application.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrRegistrationRejected    = errors.New("registration rejected")
	ErrUserNotFound            = errors.New("user not found")
	ErrAdminAlreadyProvisioned = errors.New("an administrator already exists")
	ErrBootstrapInProgress     = errors.New("administrator setup already in progress")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrPasswordMismatch        = errors.New("password confirmation does not match")
)

// AuthServiceError wraps an unexpected failure raised while the auth service
// orchestrated Op. It matches both ErrAuthService and the original cause.
type AuthServiceError struct {
	Op  string
	Err error
}

func (e *AuthServiceError) Error() string {
	return "auth service: " + e.Op + ": " + e.Err.Error()
}

func (e *AuthServiceError) Unwrap() []error {
	return []error{ErrAuthService, e.Err}
}
