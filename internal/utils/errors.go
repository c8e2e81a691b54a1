package utils

import "errors"

// Request errors raised by the HTTP layer.
var (
	ErrInvalidRequest = errors.New("INVALID_REQUEST")
	ErrInvalidIndex   = errors.New("INVALID_INDEX")
	ErrNoFiles        = errors.New("NO_FILES")
)
