package store

import "errors"

var (
	// ErrNotFound is returned when an instance is not found
	ErrNotFound = errors.New("instance not found")

	// ErrInvalidTransition is returned when a status change is not valid
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation is returned when launch parameters are malformed or missing
	ErrValidation = errors.New("validation failed")
)
