package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by stores and services.
var (
	// ErrNotFound indicates an unknown suspension or request id.
	ErrNotFound = errors.New("not found")

	// ErrCityAlreadySuspended indicates an issue attempt against a city that
	// already has an effectively active suspension.
	ErrCityAlreadySuspended = errors.New("city already has an active suspension")

	// ErrConcurrencyConflict indicates a lost optimistic-concurrency race.
	// Callers should retry once before surfacing it.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InvalidTransitionError reports a disallowed state-machine move.
type InvalidTransitionError struct {
	Entity string // "suspension" or "request"
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %q", e.Action, e.Entity, e.From)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}

// UpstreamError wraps a collaborator failure (store, sink, weather source).
// It is propagated, never silently defaulted.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
