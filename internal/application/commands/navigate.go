package commands

import (
	"context"
	"fmt"

	"bonsai/internal/application"
	"bonsai/internal/domain"
)

// Navigator is the part of a running engine that user-facing adapters drive
type Navigator interface {
	Submit(ctx context.Context, ev domain.Event) (application.Result, error)
	Snapshot(ctx context.Context) (*application.Snapshot, error)
}

// NavigateResult contains the result of a navigation request
type NavigateResult struct {
	application.Result
	Target  domain.Node
	Message string
}

// BackCommand moves a viewport to the parent of its head
type BackCommand struct {
	nav      Navigator
	Viewport domain.ViewportID // empty means the active viewport
}

// NewBackCommand creates a new BackCommand
func NewBackCommand(nav Navigator, viewport domain.ViewportID) *BackCommand {
	return &BackCommand{nav: nav, Viewport: viewport}
}

// Execute resolves the parent of the current head and requests it
func (c *BackCommand) Execute(ctx context.Context) (*NavigateResult, error) {
	snap, err := c.nav.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	viewport := c.Viewport
	if viewport == "" {
		viewport = snap.ActiveViewport()
	}
	head, ok := snap.HeadOf(viewport)
	if !ok {
		return nil, fmt.Errorf("viewport %q: %w", viewport, application.ErrNoHead)
	}
	parent, ok := snap.Parent(head.ID)
	if !ok {
		return nil, &application.ValidationError{
			Field:   "viewportID",
			Message: fmt.Sprintf("%s is at the start of its history", viewport),
		}
	}

	return submit(ctx, c.nav, domain.RequestBack(viewport, parent.ID), parent)
}

// ForwardCommand moves a viewport to one of its descendants
type ForwardCommand struct {
	nav      Navigator
	Viewport domain.ViewportID
	Target   domain.NodeID
}

// NewForwardCommand creates a new ForwardCommand
func NewForwardCommand(nav Navigator, viewport domain.ViewportID, target domain.NodeID) *ForwardCommand {
	return &ForwardCommand{nav: nav, Viewport: viewport, Target: target}
}

// Validate checks if the forward request is well formed
func (c *ForwardCommand) Validate() error {
	return application.ValidateRequired("targetID", string(c.Target))
}

// Execute submits the forward request
func (c *ForwardCommand) Execute(ctx context.Context) (*NavigateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	snap, err := c.nav.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	target, err := snap.Node(c.Target)
	if err != nil {
		return nil, err
	}

	return submit(ctx, c.nav, domain.RequestForward(c.Viewport, c.Target), target)
}

func submit(ctx context.Context, nav Navigator, ev domain.Event, target domain.Node) (*NavigateResult, error) {
	res, err := nav.Submit(ctx, ev)
	if err != nil {
		return nil, err
	}
	return &NavigateResult{
		Result:  res,
		Target:  target,
		Message: describe(res, target),
	}, nil
}

func describe(res application.Result, target domain.Node) string {
	switch res.Resolution {
	case application.ResolutionReusedViewport:
		return fmt.Sprintf("Switched to viewport %s already on %s", res.Viewport, target.Data.URL)
	case application.ResolutionAlreadyThere:
		return fmt.Sprintf("Already on %s", target.Data.URL)
	case application.ResolutionForwarded:
		return fmt.Sprintf("Navigating %s to %s", res.Viewport, target.Data.URL)
	default:
		return string(res.Resolution)
	}
}
