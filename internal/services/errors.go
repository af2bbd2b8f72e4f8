package services

import (
	"errors"
	"fmt"
)

// ErrIncomplete marks an operation whose first step was committed while a
// later step failed. Nothing is rolled back.
var ErrIncomplete = errors.New("created but incomplete")

// AuthError wraps a failure reported by the authentication gateway.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// FetchError is a failed list query. The view keeps its previous render.
type FetchError struct {
	Table string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error loading %s: %v", e.Table, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

// MutationError is a failed insert, update or delete.
type MutationError struct {
	Op    string
	Table string
	Err   error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}
func (e *MutationError) Unwrap() error { return e.Err }

// ValidationError is raised before any gateway call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
