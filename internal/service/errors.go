package service

import "errors"

// Result variants shared by every service. Callers match with errors.Is; the
// HTTP and socket boundaries translate them into status codes and error events.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrRateLimited  = errors.New("rate limited")
	ErrGeneration   = errors.New("generation failed")
)
