package service

import "errors"

// Errors returned by the services.  Handlers map each of them to one HTTP
// status; any other error is an internal failure.  Callers wrap them with
// fmt.Errorf("%w: ...") to add a client-safe message.
var (
	ErrValidation   = errors.New("invalid payload")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
