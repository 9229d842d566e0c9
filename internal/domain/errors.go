package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree and head table operations
var (
	ErrNotFound           = errors.New("not found")
	ErrInvariantViolation = errors.New("invariant violation")
)

// NotFoundError reports an unknown node or viewport id
type NotFoundError struct {
	Kind string // "node" or "viewport"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvariantError reports a broken structural invariant of the tree
type InvariantError struct {
	Node   NodeID
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated at node %s: %s", e.Node, e.Reason)
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

func nodeNotFound(id NodeID) error {
	return &NotFoundError{Kind: "node", ID: string(id)}
}
