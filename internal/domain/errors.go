package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrDuplicate       = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrCorruptDocument = errors.New("corrupt inventory document")
)

// ValidationError reports a missing or empty required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateError reports a name collision at the area or storage level.
type DuplicateError struct {
	Kind string
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// NotFoundError reports a referenced entity that does not exist at operation time.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
