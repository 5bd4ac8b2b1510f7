package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the attribute that was rejected.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s %s", e.Entity, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
