package marketplace

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the client. Match them with errors.Is.
var (
	ErrAuthRequired   = errors.New("AUTH_REQUIRED")
	ErrSessionExpired = errors.New("SESSION_EXPIRED")
	ErrNotFound       = errors.New("NOT_FOUND")
	ErrRejected       = errors.New("REJECTED")
	ErrServer         = errors.New("SERVER_ERROR")
	ErrTransport      = errors.New("TRANSPORT_ERROR")
)

// Error is a failed backend call.
type Error struct {
	Kind    error
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Is matches the failure kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NeedsLogin reports whether err should send the user to the login flow.
func NeedsLogin(err error) bool {
	return errors.Is(err, ErrAuthRequired) || errors.Is(err, ErrSessionExpired)
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	var e *Error
	switch {
	case errors.Is(err, ErrAuthRequired):
		return "Please log in to continue"
	case errors.Is(err, ErrSessionExpired):
		return "Session expired. Please log in again."
	case errors.As(err, &e) && e.Message != "":
		return e.Message
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrServer):
		return "Server error, please try again later"
	case errors.Is(err, ErrTransport):
		return "Could not reach the marketplace"
	case err != nil:
		return err.Error()
	default:
		return ""
	}
}
