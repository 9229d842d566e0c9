package domain

import "strings"

// HeadsOnNode returns the heads positioned exactly on node, in insertion order
func HeadsOnNode(heads *HeadTable, node NodeID) []HeadEntry {
	var out []HeadEntry
	for _, v := range heads.ViewportsOnNode(node) {
		out = append(out, HeadEntry{Viewport: v, Node: node})
	}
	return out
}

// DescendantLeaves collects every childless descendant of node, depth-first,
// keeping child order. The node itself is never included.
func DescendantLeaves(tree *Tree, node NodeID) ([]NodeID, error) {
	start, ok := tree.nodes[node]
	if !ok {
		return nil, nodeNotFound(node)
	}

	var leaves []NodeID
	stack := make([]NodeID, 0, len(start.Children))
	for i := len(start.Children) - 1; i >= 0; i-- {
		stack = append(stack, start.Children[i])
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, ok := tree.nodes[id]
		if !ok {
			return nil, &InvariantError{Node: id, Reason: "listed as child but missing from arena"}
		}
		if n.IsLeaf() {
			leaves = append(leaves, id)
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return leaves, nil
}

// Ancestors returns the parent chain of node, nearest first
func Ancestors(tree *Tree, node NodeID) ([]NodeID, error) {
	n, ok := tree.nodes[node]
	if !ok {
		return nil, nodeNotFound(node)
	}
	var out []NodeID
	for n.HasParent() {
		if len(out) > len(tree.nodes) {
			return nil, &InvariantError{Node: node, Reason: "node is its own ancestor"}
		}
		out = append(out, n.Parent)
		next, ok := tree.nodes[n.Parent]
		if !ok {
			return nil, &InvariantError{Node: n.ID, Reason: "parent missing from arena"}
		}
		n = next
	}
	return out, nil
}

// WorkspaceItem is an entry pinned to a workspace group
type WorkspaceItem struct {
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	GroupID       string `json:"group_id"`
	GroupName     string `json:"group_name"`
	ItemID        string `json:"item_id"`
	URL           string `json:"url"`
}

// WorkspaceRef is a back-link from a history node to a workspace item
type WorkspaceRef struct {
	WorkspaceID   string `json:"workspace_id"`
	GroupID       string `json:"group_id"`
	ItemID        string `json:"item_id"`
	WorkspaceName string `json:"workspace_name"`
	GroupName     string `json:"group_name"`
}

// Ref returns the back-link form of the item
func (w WorkspaceItem) Ref() WorkspaceRef {
	return WorkspaceRef{
		WorkspaceID:   w.WorkspaceID,
		GroupID:       w.GroupID,
		ItemID:        w.ItemID,
		WorkspaceName: w.WorkspaceName,
		GroupName:     w.GroupName,
	}
}

// BaseURL strips the fragment so that same-document variants compare equal
func BaseURL(url string) string {
	base, _, _ := strings.Cut(url, "#")
	return base
}

// MatchBacklinks returns the refs of items whose URL matches url, ignoring fragments
func MatchBacklinks(url string, items []WorkspaceItem) []WorkspaceRef {
	want := BaseURL(url)
	var out []WorkspaceRef
	for _, item := range items {
		if BaseURL(item.URL) == want {
			out = append(out, item.Ref())
		}
	}
	return out
}
