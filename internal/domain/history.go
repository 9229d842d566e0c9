package domain

import (
	"slices"
	"time"
)

// NodeID identifies a history node. Assigned at creation and never reused.
type NodeID string

// ViewportID identifies a browsing surface (a tab).
type ViewportID string

// HistoryData is the mutable payload of a history node
type HistoryData struct {
	URL       string    `json:"url"`
	Scroll    float64   `json:"scroll"`
	Timestamp time.Time `json:"timestamp"`
}

// Node is one navigation state in the history tree.
// Parent and Children hold ids looked up in the owning Tree, never pointers.
type Node struct {
	ID       NodeID      `json:"id"`
	Data     HistoryData `json:"data"`
	Parent   NodeID      `json:"parent,omitempty"` // empty for roots
	Children []NodeID    `json:"children,omitempty"`
}

// HasParent reports whether the node is linked under another node
func (n Node) HasParent() bool {
	return n.Parent != ""
}

// IsLeaf reports whether the node has no children
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

func (n *Node) clone() Node {
	c := *n
	c.Children = slices.Clone(n.Children)
	return c
}
