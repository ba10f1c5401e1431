package store

import "errors"

// Sentinel errors translated to HTTP statuses at the handler edge.
// gorm errors never leave this package; every failure a caller can act
// on wraps one of these.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
)
