package model

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("event not found")
	ErrCapacity   = errors.New("event storage full")
	ErrIO         = errors.New("persistence failed")
)

// ValidationError names the field and the constraint it broke.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an id that is not in the store.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event with ID %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CapacityError reports that the store already holds Limit events.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("event storage full: limit of %d events reached", e.Limit)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// IOError wraps a persistence failure. Line is set for malformed input files.
type IOError struct {
	Op   string
	Path string
	Line int
	Err  error
}

func (e *IOError) Error() string {
	op := e.Op
	if e.Path != "" {
		op += " " + e.Path
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", op, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
