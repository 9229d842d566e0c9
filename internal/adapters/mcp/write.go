package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"bonsai/internal/application/commands"
	"bonsai/internal/domain"
)

// RegisterWriteTools adds the navigation tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, nav commands.Navigator) {
	s.AddTool(backTool(), backHandler(nav))
	s.AddTool(forwardTool(), forwardHandler(nav))
	s.AddTool(forgetTool(), forgetHandler(nav))
}

// --- back ---

func backTool() mcp.Tool {
	return mcp.NewTool("back",
		mcp.WithDescription("Navigate a viewport one step back. If another viewport is already on that page it is activated instead."),
		mcp.WithString("viewport_id",
			mcp.Description("Viewport to move. Omit to use the active viewport."),
		),
	)
}

func backHandler(nav commands.Navigator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		viewport := domain.ViewportID(req.GetString("viewport_id", ""))

		result, err := commands.NewBackCommand(nav, viewport).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- forward ---

func forwardTool() mcp.Tool {
	return mcp.NewTool("forward",
		mcp.WithDescription("Navigate a viewport forward to one of its descendants. Use the leaves tool to list destinations."),
		mcp.WithString("target_id",
			mcp.Description("Node to navigate to"),
			mcp.Required(),
		),
		mcp.WithString("viewport_id",
			mcp.Description("Viewport to move. Omit to use the active viewport."),
		),
	)
}

func forwardHandler(nav commands.Navigator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := domain.NodeID(req.GetString("target_id", ""))
		viewport := domain.ViewportID(req.GetString("viewport_id", ""))

		result, err := commands.NewForwardCommand(nav, viewport, target).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- forget ---

func forgetTool() mcp.Tool {
	return mcp.NewTool("forget",
		mcp.WithDescription("Remove a node from history. Its children become new roots. Fails while a viewport is on it."),
		mcp.WithString("node_id",
			mcp.Description("Node to remove"),
			mcp.Required(),
		),
	)
}

func forgetHandler(nav commands.Navigator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := domain.NodeID(req.GetString("node_id", ""))

		result, err := commands.NewForgetCommand(nav, id).Execute(ctx)
		if err != nil {
			return toolError(fmt.Errorf("forget %s: %w", id, err))
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}
