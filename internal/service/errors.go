package service

import "errors"

// Failure categories surfaced to the HTTP boundary. Handlers map these to
// status codes; anything else becomes a generic server error.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("too many attempts")
	ErrProvider     = errors.New("payment provider failure")
)
