package ports

import (
	"context"

	"bonsai/internal/domain"
)

// Authority is the external browsing engine that performs real page loads.
// Commands are fire-and-forget: the outcome arrives later as an event.
type Authority interface {
	// PerformBack asks the authority to navigate viewport back to backTo
	PerformBack(ctx context.Context, viewport domain.ViewportID, backTo domain.Node) error

	// PerformForward asks the authority to navigate viewport forward to forwardTo
	PerformForward(ctx context.Context, viewport domain.ViewportID, forwardTo domain.Node) error

	// ActivateViewport asks the authority to foreground viewport
	ActivateViewport(ctx context.Context, viewport domain.ViewportID) error
}
