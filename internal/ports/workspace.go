package ports

import (
	"context"

	"bonsai/internal/domain"
)

// WorkspaceDirectory resolves history URLs to the workspace items pinning them.
// The engine never writes to it; PutItem exists for seeding from the CLI.
type WorkspaceDirectory interface {
	// LookupURL returns every item whose URL matches, ignoring fragments
	LookupURL(ctx context.Context, url string) ([]domain.WorkspaceRef, error)

	PutItem(ctx context.Context, item domain.WorkspaceItem) error
}
