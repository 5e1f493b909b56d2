// Package memory implements the project memory service: create with
// semantic deduplication, scoped retrieval, access bookkeeping and statistics.
package memory

import (
	"errors"
	"fmt"
)

// Validation errors, rejected before any I/O.
var (
	// ErrEmptyContent indicates that a memory was submitted without content.
	ErrEmptyContent = errors.New("memory content is empty")

	// ErrMissingProject indicates that no project identifier was supplied.
	ErrMissingProject = errors.New("project id is required")
)

// ServiceError wraps errors with operation context.
//
// It records which service operation failed so callers and logs get a
// stable "memory: <op>: <err>" shape. The underlying error remains
// reachable through errors.Is / errors.As.
type ServiceError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns the formatted message.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("memory: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err with operation context, or returns nil if err is nil.
func newServiceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Op: op, Err: err}
}
