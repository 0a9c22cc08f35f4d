package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the library application. Callers match with Is against
// the three class errors; the specific errors wrap their class.
var (
	// ErrValidation marks input rejected locally, before any remote call.
	ErrValidation = errors.New("validation error")
	// ErrAuth marks identity provider failures: bad credentials, signup conflicts.
	ErrAuth = errors.New("authentication error")
	// ErrBackendUnavailable marks any document store failure.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// Validation errors
	ErrTitleRequired  = fmt.Errorf("%w: title is required", ErrValidation)
	ErrAuthorRequired = fmt.Errorf("%w: author is required", ErrValidation)
	ErrInvalidYear    = fmt.Errorf("%w: year must be a whole number", ErrValidation)

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuth)
	ErrEmailTaken         = fmt.Errorf("%w: email already in use", ErrAuth)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email", ErrAuth)
	ErrWeakPassword       = fmt.Errorf("%w: password too weak", ErrAuth)

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidToken    = errors.New("invalid token")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Unavailable marks err as a backend failure while keeping it in the chain.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
