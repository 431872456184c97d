package store

import "errors"

// Predefined errors for the store layer.
var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEmail indicates a waitlist signup with an email that is
	// already registered.
	ErrDuplicateEmail = errors.New("email already on waitlist")
)
