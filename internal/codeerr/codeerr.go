// Package codeerr defines the tagged error taxonomy shared by every layer
// of the index: extraction, indexing, coordination, storage, and queries
// all wrap failures in an *Error carrying one of the Kind values so callers
// can branch on category without parsing messages.
package codeerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the layer and policy that produced it.
type Kind string

const (
	// Closed indicates a query-layer handle that has already been closed.
	Closed Kind = "closed"
	// Watcher indicates a filesystem watcher backend failure.
	Watcher Kind = "watcher"
	// Parse indicates the parser rejected a file.
	Parse Kind = "parse"
	// Extract indicates an extractor invariant violation.
	Extract Kind = "extract"
	// Index indicates an indexer write error other than the store itself.
	Index Kind = "index"
	// Store indicates a repository or transaction failure.
	Store Kind = "store"
	// Search indicates a query error.
	Search Kind = "search"
)

// Error is the common error carrier for all tagged kinds.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error carrying cause, or nil if cause is nil.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a tagged *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
