// Package apperr defines the error taxonomy shared across the note graph.
package apperr

import (
	"errors"
	"fmt"
)

// ErrTenantNotReady is returned when a user's graph database has not been
// provisioned yet. Callers should surface it as retryable (HTTP 503).
var ErrTenantNotReady = errors.New("tenant database not ready")

// ErrNotFound marks legitimate absence in contexts where nil cannot be
// returned (e.g. handler-level id lookups). Store lookups return nil, nil.
var ErrNotFound = errors.New("not found")

// Resolution steps, used by ResolutionError.
const (
	StepResolve = "resolve"
	StepRemove  = "remove"
)

// StoreError wraps a graph-client failure during a store operation. The raw
// transport error is preserved for unwrapping but never leaks its shape to
// API consumers.
type StoreError struct {
	Op  string // e.g. "create note", "get backlinks"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError for the given operation. A nil err returns nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// ResolutionError wraps a failure during wikilink resolution. Step identifies
// which half of the workflow failed (StepResolve or StepRemove); both halves
// are safe to retry as a whole.
type ResolutionError struct {
	Step string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("wikilink %s failed: %v", e.Step, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolution wraps err as a ResolutionError for the given step. A nil err returns nil.
func Resolution(step string, err error) error {
	if err == nil {
		return nil
	}
	return &ResolutionError{Step: step, Err: err}
}
