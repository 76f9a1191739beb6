package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// StorageErrorMessage describes failures of the memory bank database.
	StorageErrorMessage = "storage operation failed"
	// SessionNotFoundMessage is returned when a session id is unknown or expired.
	SessionNotFoundMessage = "session not found"
)

// Sentinel kinds. Match with errors.Is against any AppError in the chain.
var (
	ErrMissingPrerequisite = errors.New("missing prerequisite")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// MissingPrerequisite rejects an operation whose required prior state is absent.
// The message is shown to the caller as-is.
func MissingPrerequisite(message string) *AppError {
	return New(ErrMissingPrerequisite, http.StatusBadRequest, message)
}

// SessionNotFound reports an unknown or expired session id.
func SessionNotFound(sessionID string) *AppError {
	return New(fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID), http.StatusNotFound, SessionNotFoundMessage)
}

// InvalidInput reports a malformed request payload.
func InvalidInput(err error, message string) *AppError {
	if err == nil {
		err = ErrInvalidInput
	} else {
		err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return New(err, http.StatusBadRequest, message)
}

// WrapStorage wraps a database failure with a consistent status and message.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, StorageErrorMessage)
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return errors.As(e.Err, target)
}

// Status extracts the HTTP status carried by err, defaulting to 500.
func Status(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the caller-safe message carried by err.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
