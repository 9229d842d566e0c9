package application

import (
	"errors"
	"fmt"

	"bonsai/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound           = domain.ErrNotFound
	ErrInvariantViolation = domain.ErrInvariantViolation
	ErrNoHead             = errors.New("viewport has no head")
	ErrStaleConfirmation  = errors.New("stale confirmation")
	ErrNodeInUse          = errors.New("node is referenced by a head")
	ErrUnknownEvent       = errors.New("unknown event")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// EventError explains why an event was dropped. Err carries the sentinel.
type EventError struct {
	Kind     domain.EventKind
	Viewport domain.ViewportID
	Reason   string
	Err      error
}

func (e *EventError) Error() string {
	if e.Viewport == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s on viewport %s: %s", e.Kind, e.Viewport, e.Reason)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

func dropped(ev domain.Event, err error, reason string) error {
	return &EventError{Kind: ev.Kind, Viewport: ev.Viewport, Reason: reason, Err: err}
}
