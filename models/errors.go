// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

// Error kinds crossing the engine boundary. Every failure an engine
// operation reports matches exactly one of these with errors.Is, or is an
// infrastructure error.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrNotOpen          = errors.New("poll is not open")
	ErrAlreadyVoted     = errors.New("already voted")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrImmutable        = errors.New("poll is immutable")
	ErrStaleVersion     = errors.New("stale poll version")
)

// ValidationError names the offending input. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// SelectionError explains why a ballot selection was refused. It matches
// ErrInvalidSelection.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return "invalid selection: " + e.Reason
}

func (e *SelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}

func NewSelectionError(reason string) error {
	return &SelectionError{Reason: reason}
}
