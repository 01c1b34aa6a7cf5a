package profile

import (
	"errors"
	"fmt"
)

// Service errors
var (
	ErrNotFound     = errors.New("profile not found")
	ErrConflict     = errors.New("profile email already exists")
	ErrInvalidInput = errors.New("invalid profile input")
)

// Messages carried by BackendError.Msg.
const (
	msgExists      = "Cannot check if profile datum exists"
	msgIntegrity   = "Cannot check profile datum integrity"
	msgList        = "Cannot list profile data"
	msgGet         = "Cannot get profile datum"
	msgCreate      = "Cannot create profile datum"
	msgUpdate      = "Cannot update profile datum"
	msgDelete      = "Cannot delete profile datum"
	msgCacheGet    = "Cannot get profile datum from cache"
	msgCacheSet    = "Cannot set profile datum to cache"
	msgCacheDelete = "Cannot delete profile datum from cache"
	msgCacheTTL    = "Cannot get ttl from cache"
)

// BackendError reports a failed store or cache call. Msg names the failed
// operation and Reason carries the store's diagnostic text.
type BackendError struct {
	Msg    string
	Reason string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Reason == "" {
		return e.Msg
	}
	return e.Msg + ": " + e.Reason
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendError(msg string, err error) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Msg: msg, Reason: err.Error(), Err: err}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	var be *BackendError
	switch {
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.As(err, &be):
		return "backend_error"
	default:
		return "internal_error"
	}
}
