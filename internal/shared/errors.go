// Package shared defines sentinel errors and small utility helpers used
// across the service layers. Callers match these values with errors.Is.
package shared

import "errors"

var (

	// repository-level errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// service-level outcome kinds
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrWeakPassword       = errors.New("weak password")
	ErrAccountLocked      = errors.New("account is temporarily locked")

	// wraps unexpected lower-layer faults (disk, connection)
	ErrStorageUnavailable = errors.New("storage unavailable")

	// auth errors (invalid or malformed token)
	ErrInvalidToken = errors.New("invalid token")
)
