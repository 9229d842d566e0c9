package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"bonsai/internal/application"
	"bonsai/internal/application/commands"
	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

// RegisterReadTools adds all read-only history tools to the MCP server.
// Backlink lookup is only offered when dir is non-nil.
func RegisterReadTools(s *server.MCPServer, nav commands.Navigator, dir ports.WorkspaceDirectory) {
	s.AddTool(treeTool(), treeHandler(nav))
	s.AddTool(headsTool(), headsHandler(nav))
	s.AddTool(leavesTool(), leavesHandler(nav))
	s.AddTool(nodeTool(), nodeHandler(nav))
	if dir != nil {
		s.AddTool(backlinksTool(), backlinksHandler(nav, dir))
	}
}

// --- tree ---

func treeTool() mcp.Tool {
	return mcp.NewTool("tree",
		mcp.WithDescription("Display the browsing history as a tree. Viewports positioned on a node are shown after its URL."),
	)
}

func treeHandler(nav commands.Navigator) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := nav.Snapshot(ctx)
		if err != nil {
			return toolError(err)
		}
		outline := snap.Outline()
		if len(outline) == 0 {
			return mcp.NewToolResultText("History is empty."), nil
		}
		var sb strings.Builder
		renderOutline(&sb, outline)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func renderOutline(sb *strings.Builder, outline []application.OutlineEntry) {
	for _, e := range outline {
		fmt.Fprintf(sb, "%s%s  %s", strings.Repeat("  ", e.Depth), e.Node.ID, e.Node.Data.URL)
		if len(e.Heads) > 0 {
			fmt.Fprintf(sb, "  %v", e.Heads)
		}
		sb.WriteByte('\n')
	}
}

// --- heads ---

func headsTool() mcp.Tool {
	return mcp.NewTool("heads",
		mcp.WithDescription("List every open viewport with the URL it is on. The active viewport is marked with *."),
	)
}

func headsHandler(nav commands.Navigator) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := nav.Snapshot(ctx)
		if err != nil {
			return toolError(err)
		}
		entries := snap.Heads.Entries()
		if len(entries) == 0 {
			return mcp.NewToolResultText("No open viewports."), nil
		}

		var sb strings.Builder
		for _, h := range entries {
			marker := " "
			if h.Viewport == snap.ActiveViewport() {
				marker = "*"
			}
			n, err := snap.Node(h.Node)
			if err != nil {
				return toolError(err)
			}
			fmt.Fprintf(&sb, "%s %s  %s  %s", marker, h.Viewport, n.ID, n.Data.URL)
			if p, ok := snap.PendingFor(h.Viewport); ok {
				fmt.Fprintf(&sb, "  (pending %s to %s)", p.Kind, p.URL)
			}
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- leaves ---

func leavesTool() mcp.Tool {
	return mcp.NewTool("leaves",
		mcp.WithDescription("List the forward destinations reachable from a node: every leaf below it, depth first."),
		mcp.WithString("node_id",
			mcp.Description("Node to start from. Omit to use the active viewport's current node."),
		),
	)
}

func leavesHandler(nav commands.Navigator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := nav.Snapshot(ctx)
		if err != nil {
			return toolError(err)
		}
		start, err := resolveNode(snap, req.GetString("node_id", ""))
		if err != nil {
			return toolError(err)
		}
		leaves, err := snap.DescendantLeaves(start.ID)
		if err != nil {
			return toolError(err)
		}
		return formatNodes(leaves)
	}
}

// --- node ---

func nodeTool() mcp.Tool {
	return mcp.NewTool("node",
		mcp.WithDescription("Show a node with its ancestry, children and the viewports positioned on it."),
		mcp.WithString("node_id",
			mcp.Description("Node ID. Omit to use the active viewport's current node."),
		),
	)
}

func nodeHandler(nav commands.Navigator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := nav.Snapshot(ctx)
		if err != nil {
			return toolError(err)
		}
		n, err := resolveNode(snap, req.GetString("node_id", ""))
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s  %s\n", n.ID, n.Data.URL)
		fmt.Fprintf(&sb, "visited: %s\n", n.Data.Timestamp.Format("2006-01-02 15:04:05"))

		chain, err := domain.Ancestors(snap.Tree, n.ID)
		if err != nil {
			return toolError(err)
		}
		for i, id := range chain {
			a, _ := snap.Node(id)
			fmt.Fprintf(&sb, "back %d: %s  %s\n", i+1, a.ID, a.Data.URL)
		}
		children, err := snap.Children(n.ID)
		if err != nil {
			return toolError(err)
		}
		for _, c := range children {
			fmt.Fprintf(&sb, "child: %s  %s\n", c.ID, c.Data.URL)
		}
		for _, h := range snap.HeadsOnNode(n.ID) {
			fmt.Fprintf(&sb, "viewport: %s\n", h.Viewport)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- backlinks ---

func backlinksTool() mcp.Tool {
	return mcp.NewTool("backlinks",
		mcp.WithDescription("List the workspace items pinning a URL. Fragments are ignored."),
		mcp.WithString("url",
			mcp.Description("URL to look up"),
		),
		mcp.WithString("node_id",
			mcp.Description("Node whose URL to look up, used when url is omitted. Defaults to the active viewport's current node."),
		),
	)
}

func backlinksHandler(nav commands.Navigator, dir ports.WorkspaceDirectory) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url := req.GetString("url", "")
		if url == "" {
			snap, err := nav.Snapshot(ctx)
			if err != nil {
				return toolError(err)
			}
			n, err := resolveNode(snap, req.GetString("node_id", ""))
			if err != nil {
				return toolError(err)
			}
			url = n.Data.URL
		}

		refs, err := commands.NewBacklinksCommand(dir, url).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(refs) == 0 {
			return mcp.NewToolResultText("No workspace items pin " + url), nil
		}
		var sb strings.Builder
		for _, r := range refs {
			fmt.Fprintf(&sb, "%s / %s  (%s)\n", r.WorkspaceName, r.GroupName, r.ItemID)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

// resolveNode returns the node with the given id, or the active head when id is empty
func resolveNode(snap *application.Snapshot, id string) (domain.Node, error) {
	if id != "" {
		return snap.Node(domain.NodeID(id))
	}
	n, ok := snap.ActiveHead()
	if !ok {
		return domain.Node{}, fmt.Errorf("no active viewport; pass node_id")
	}
	return n, nil
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatNodes(nodes []domain.Node) (*mcp.CallToolResult, error) {
	if len(nodes) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&sb, "%s  %s\n", n.ID, n.Data.URL)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
