package commands

import (
	"context"

	"bonsai/internal/application"
	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

// BacklinksCommand finds the workspace items pinning a node's URL
type BacklinksCommand struct {
	dir ports.WorkspaceDirectory
	URL string
}

// NewBacklinksCommand creates a new BacklinksCommand
func NewBacklinksCommand(dir ports.WorkspaceDirectory, url string) *BacklinksCommand {
	return &BacklinksCommand{dir: dir, URL: url}
}

// Validate checks if the lookup is well formed
func (c *BacklinksCommand) Validate() error {
	return application.ValidateRequired("url", c.URL)
}

// Execute runs the lookup
func (c *BacklinksCommand) Execute(ctx context.Context) ([]domain.WorkspaceRef, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.dir.LookupURL(ctx, c.URL)
}
