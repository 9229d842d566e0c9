package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// HeadEntry pairs a viewport with the node it is positioned on
type HeadEntry struct {
	Viewport ViewportID `json:"viewport"`
	Node     NodeID     `json:"node"`
}

// HeadTable maps each viewport to its current node. Several viewports may
// share a node. Iteration follows the order in which viewports first got a head.
type HeadTable struct {
	heads  *orderedmap.OrderedMap[ViewportID, NodeID]
	active ViewportID
}

// NewHeadTable creates an empty head table
func NewHeadTable() *HeadTable {
	return &HeadTable{heads: orderedmap.New[ViewportID, NodeID]()}
}

// SetHead points the viewport at node, overwriting any previous head
func (h *HeadTable) SetHead(viewport ViewportID, node NodeID) {
	h.heads.Set(viewport, node)
}

// Head returns the node the viewport is on
func (h *HeadTable) Head(viewport ViewportID) (NodeID, bool) {
	return h.heads.Get(viewport)
}

// RemoveHead drops the viewport's head and reports whether one existed
func (h *HeadTable) RemoveHead(viewport ViewportID) bool {
	_, existed := h.heads.Delete(viewport)
	return existed
}

// ViewportsOnNode returns every viewport positioned on node, in insertion order
func (h *HeadTable) ViewportsOnNode(node NodeID) []ViewportID {
	var out []ViewportID
	for pair := h.heads.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == node {
			out = append(out, pair.Key)
		}
	}
	return out
}

// References reports whether any viewport is positioned on node
func (h *HeadTable) References(node NodeID) bool {
	for pair := h.heads.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == node {
			return true
		}
	}
	return false
}

// SetActive marks the foregrounded viewport
func (h *HeadTable) SetActive(viewport ViewportID) {
	h.active = viewport
}

// Active returns the foregrounded viewport; empty when none
func (h *HeadTable) Active() ViewportID {
	return h.active
}

// Entries returns all heads in insertion order
func (h *HeadTable) Entries() []HeadEntry {
	out := make([]HeadEntry, 0, h.heads.Len())
	for pair := h.heads.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, HeadEntry{Viewport: pair.Key, Node: pair.Value})
	}
	return out
}

// Len returns the number of heads
func (h *HeadTable) Len() int {
	return h.heads.Len()
}

// Clone returns an independent copy preserving order
func (h *HeadTable) Clone() *HeadTable {
	c := NewHeadTable()
	for pair := h.heads.Oldest(); pair != nil; pair = pair.Next() {
		c.heads.Set(pair.Key, pair.Value)
	}
	c.active = h.active
	return c
}
