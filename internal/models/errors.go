package models

import "errors"

// Errors surfaced by the services. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrValidation    = errors.New("validation failed")
	ErrEntryNotFound = errors.New("entry not found")
	ErrConflict      = errors.New("record was modified concurrently")
	ErrStorage       = errors.New("storage failure")

	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError describes which field failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
