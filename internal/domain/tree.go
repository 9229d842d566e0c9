package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Tree owns every history node. Nodes are stored in an arena keyed by id and
// linked to each other by id only.
//
// The only structural primitives are "append a new leaf child" and "detach
// from parent", so a cycle can never be built through this API.
type Tree struct {
	nodes map[NodeID]*Node
	roots []NodeID

	newID func() NodeID
	now   func() time.Time
}

// TreeOption configures a Tree
type TreeOption func(*Tree)

// WithClock sets the time source used to stamp nodes
func WithClock(now func() time.Time) TreeOption {
	return func(t *Tree) {
		t.now = now
	}
}

// WithIDSource sets the generator used for new node ids
func WithIDSource(next func() NodeID) TreeOption {
	return func(t *Tree) {
		t.newID = next
	}
}

// NewTree creates an empty tree
func NewTree(opts ...TreeOption) *Tree {
	t := &Tree{
		nodes: make(map[NodeID]*Node),
		newID: func() NodeID { return NodeID(uuid.NewString()) },
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tree) alloc(url string) *Node {
	n := &Node{
		ID:   t.newID(),
		Data: HistoryData{URL: url, Timestamp: t.now()},
	}
	t.nodes[n.ID] = n
	return n
}

// CreateRoot allocates a parentless node and registers it as a root
func (t *Tree) CreateRoot(url string) NodeID {
	n := t.alloc(url)
	t.roots = append(t.roots, n.ID)
	return n.ID
}

// CreateChild allocates a node and appends it as the parent's newest child
func (t *Tree) CreateChild(parent NodeID, url string) (NodeID, error) {
	p, ok := t.nodes[parent]
	if !ok {
		return "", nodeNotFound(parent)
	}
	n := t.alloc(url)
	n.Parent = p.ID
	p.Children = append(p.Children, n.ID)
	return n.ID, nil
}

// UpdateInPlace replaces the payload of a node without changing tree shape
func (t *Tree) UpdateInPlace(id NodeID, url string, scroll float64) error {
	n, ok := t.nodes[id]
	if !ok {
		return nodeNotFound(id)
	}
	n.Data = HistoryData{URL: url, Scroll: scroll, Timestamp: t.now()}
	return nil
}

// Remove detaches a node from its parent, promotes its children to roots and
// deletes it. Callers must make sure no head still references the node.
func (t *Tree) Remove(id NodeID) error {
	n, ok := t.nodes[id]
	if !ok {
		return nodeNotFound(id)
	}

	if n.HasParent() {
		if p, ok := t.nodes[n.Parent]; ok {
			p.Children = slices.DeleteFunc(p.Children, func(c NodeID) bool { return c == id })
		}
	} else {
		t.roots = slices.DeleteFunc(t.roots, func(r NodeID) bool { return r == id })
	}

	for _, childID := range n.Children {
		if child, ok := t.nodes[childID]; ok {
			child.Parent = ""
			t.roots = append(t.roots, childID)
		}
	}

	delete(t.nodes, id)
	return nil
}

// Get returns a copy of the node
func (t *Tree) Get(id NodeID) (Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, nodeNotFound(id)
	}
	return n.clone(), nil
}

// Contains reports whether the node exists
func (t *Tree) Contains(id NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// ParentOf returns the parent id; ok is false for roots
func (t *Tree) ParentOf(id NodeID) (parent NodeID, ok bool, err error) {
	n, found := t.nodes[id]
	if !found {
		return "", false, nodeNotFound(id)
	}
	return n.Parent, n.HasParent(), nil
}

// ChildrenOf returns the children in arrival order
func (t *Tree) ChildrenOf(id NodeID) ([]NodeID, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, nodeNotFound(id)
	}
	return slices.Clone(n.Children), nil
}

// Roots returns the parentless nodes in registration order
func (t *Tree) Roots() []NodeID {
	return slices.Clone(t.roots)
}

// Len returns the number of nodes in the tree
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Clone returns a deep copy sharing no state with t
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes: make(map[NodeID]*Node, len(t.nodes)),
		roots: slices.Clone(t.roots),
		newID: t.newID,
		now:   t.now,
	}
	for id, n := range t.nodes {
		cp := n.clone()
		c.nodes[id] = &cp
	}
	return c
}

// Check verifies the structural invariants: parent/child links agree in both
// directions, roots are exactly the parentless nodes, and every parent chain
// ends at a root.
func (t *Tree) Check() error {
	for id, n := range t.nodes {
		if n.HasParent() {
			p, ok := t.nodes[n.Parent]
			if !ok {
				return &InvariantError{Node: id, Reason: fmt.Sprintf("parent %s missing", n.Parent)}
			}
			if !slices.Contains(p.Children, id) {
				return &InvariantError{Node: id, Reason: fmt.Sprintf("not listed in children of %s", n.Parent)}
			}
			if slices.Contains(t.roots, id) {
				return &InvariantError{Node: id, Reason: "has a parent but is registered as root"}
			}
		} else if !slices.Contains(t.roots, id) {
			return &InvariantError{Node: id, Reason: "parentless but not registered as root"}
		}

		seen := make(map[NodeID]struct{}, len(n.Children))
		for _, c := range n.Children {
			child, ok := t.nodes[c]
			if !ok {
				return &InvariantError{Node: id, Reason: fmt.Sprintf("child %s missing", c)}
			}
			if child.Parent != id {
				return &InvariantError{Node: id, Reason: fmt.Sprintf("child %s points at %q", c, child.Parent)}
			}
			if _, dup := seen[c]; dup {
				return &InvariantError{Node: id, Reason: fmt.Sprintf("child %s listed twice", c)}
			}
			seen[c] = struct{}{}
		}

		steps := 0
		for cur := n; cur.HasParent(); {
			next, ok := t.nodes[cur.Parent]
			if !ok {
				return &InvariantError{Node: cur.ID, Reason: fmt.Sprintf("parent %s missing", cur.Parent)}
			}
			cur = next
			steps++
			if steps > len(t.nodes) {
				return &InvariantError{Node: id, Reason: "node is its own ancestor"}
			}
		}
	}

	for _, r := range t.roots {
		if _, ok := t.nodes[r]; !ok {
			return &InvariantError{Node: r, Reason: "root missing from arena"}
		}
	}
	return nil
}
