package commands

import (
	"context"
	"fmt"

	"bonsai/internal/application"
	"bonsai/internal/domain"
)

// ForgetResult contains the result of removing a node from history
type ForgetResult struct {
	Node    domain.NodeID
	Message string
}

// ForgetCommand removes a node no viewport is positioned on
type ForgetCommand struct {
	nav    Navigator
	NodeID domain.NodeID
}

// NewForgetCommand creates a new ForgetCommand
func NewForgetCommand(nav Navigator, node domain.NodeID) *ForgetCommand {
	return &ForgetCommand{nav: nav, NodeID: node}
}

// Validate checks if the forget operation is valid
func (c *ForgetCommand) Validate() error {
	return application.ValidateRequired("targetID", string(c.NodeID))
}

// Execute runs the forget command
func (c *ForgetCommand) Execute(ctx context.Context) (*ForgetResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := c.nav.Submit(ctx, domain.ForgetNode(c.NodeID)); err != nil {
		return nil, fmt.Errorf("failed to forget node: %w", err)
	}
	return &ForgetResult{
		Node:    c.NodeID,
		Message: fmt.Sprintf("Forgot %s", c.NodeID),
	}, nil
}
