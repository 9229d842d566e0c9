package application

import "bonsai/internal/domain"

// Re-export domain types for use by adapters
type (
	Node         = domain.Node
	NodeID       = domain.NodeID
	ViewportID   = domain.ViewportID
	HeadEntry    = domain.HeadEntry
	Event        = domain.Event
	WorkspaceRef = domain.WorkspaceRef
)

// Resolution describes how the engine disposed of an event
type Resolution string

const (
	// ResolutionApplied means local state changed
	ResolutionApplied Resolution = "applied"
	// ResolutionUnchanged means the event was valid but changed nothing
	ResolutionUnchanged Resolution = "unchanged"
	// ResolutionReusedViewport means a request was satisfied by switching to
	// a viewport already positioned on the target
	ResolutionReusedViewport Resolution = "reused-viewport"
	// ResolutionAlreadyThere means the requesting viewport is on the target
	ResolutionAlreadyThere Resolution = "already-there"
	// ResolutionForwarded means a command was sent to the authority
	ResolutionForwarded Resolution = "forwarded"
)

// Result is the outcome of a single event
type Result struct {
	Resolution Resolution
	Viewport   domain.ViewportID
	Node       domain.NodeID
}
