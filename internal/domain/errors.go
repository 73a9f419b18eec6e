package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrMalformedRow        = errors.New("malformed row")
	ErrAccentInconsistency = errors.New("accent inconsistency")
	ErrNotConfigured       = errors.New("not configured")
	ErrNoRunID             = errors.New("run id missing from context")
)

// RowError describes a malformed line in a tabular source file.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *RowError) Unwrap() error { return ErrMalformedRow }

// NewRowError creates a RowError for the given 1-based line number.
func NewRowError(line int, reason string) *RowError {
	return &RowError{Line: line, Reason: reason}
}

// AccentError reports an accent index/type pair that contradicts the
// assumption that index 0 is always labelled Heiban.
type AccentError struct {
	Index int
	Type  string
}

func (e *AccentError) Error() string {
	return fmt.Sprintf("accent index %d labelled %q, want %q", e.Index, e.Type, AccentTypeHeiban)
}

func (e *AccentError) Unwrap() error { return ErrAccentInconsistency }
