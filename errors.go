package main

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity is not found in the store.
var ErrNotFound = errors.New("entity not found")

// ErrAccessDenied is returned when the caller lacks the role an operation requires.
var ErrAccessDenied = errors.New("access is denied")

// EntityNotFoundError reports a missing entity of a named resource type.
// Its message is part of the API contract.
type EntityNotFoundError struct {
	Resource string
	Key      any
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s with id %v not found", e.Resource, e.Key)
}

func (e *EntityNotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError is returned for malformed request parameters or bodies.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
