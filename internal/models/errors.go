package models

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrSlotUnavailable   = errors.New("time slot is no longer available")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrIntegrity means an appointment references a service or slot that does not exist.
	ErrIntegrity = errors.New("integrity violation")
)
