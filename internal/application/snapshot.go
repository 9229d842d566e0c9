package application

import (
	"bonsai/internal/domain"
)

// Snapshot is a read-only copy of engine state for the UI and other readers
type Snapshot struct {
	Tree    *domain.Tree
	Heads   *domain.HeadTable
	Pending []PendingRequest
}

// Node returns a node by id
func (s *Snapshot) Node(id domain.NodeID) (domain.Node, error) {
	return s.Tree.Get(id)
}

// ActiveViewport returns the foregrounded viewport
func (s *Snapshot) ActiveViewport() domain.ViewportID {
	return s.Heads.Active()
}

// HeadOf returns the node a viewport is positioned on
func (s *Snapshot) HeadOf(viewport domain.ViewportID) (domain.Node, bool) {
	id, ok := s.Heads.Head(viewport)
	if !ok {
		return domain.Node{}, false
	}
	n, err := s.Tree.Get(id)
	if err != nil {
		return domain.Node{}, false
	}
	return n, true
}

// ActiveHead returns the node the active viewport is positioned on
func (s *Snapshot) ActiveHead() (domain.Node, bool) {
	return s.HeadOf(s.Heads.Active())
}

// HeadsOnNode returns the viewports positioned on node
func (s *Snapshot) HeadsOnNode(node domain.NodeID) []domain.HeadEntry {
	return domain.HeadsOnNode(s.Heads, node)
}

// DescendantLeaves returns the forward destinations reachable from node
func (s *Snapshot) DescendantLeaves(node domain.NodeID) ([]domain.Node, error) {
	ids, err := domain.DescendantLeaves(s.Tree, node)
	if err != nil {
		return nil, err
	}
	return s.nodes(ids)
}

// Roots returns every lineage start
func (s *Snapshot) Roots() ([]domain.Node, error) {
	return s.nodes(s.Tree.Roots())
}

// Children returns the direct children of node
func (s *Snapshot) Children(node domain.NodeID) ([]domain.Node, error) {
	ids, err := s.Tree.ChildrenOf(node)
	if err != nil {
		return nil, err
	}
	return s.nodes(ids)
}

// Parent returns the parent of node when it has one
func (s *Snapshot) Parent(node domain.NodeID) (domain.Node, bool) {
	id, ok, err := s.Tree.ParentOf(node)
	if err != nil || !ok {
		return domain.Node{}, false
	}
	p, err := s.Tree.Get(id)
	return p, err == nil
}

// PendingFor returns the unconfirmed request of a viewport
func (s *Snapshot) PendingFor(viewport domain.ViewportID) (PendingRequest, bool) {
	for _, p := range s.Pending {
		if p.Viewport == viewport {
			return p, true
		}
	}
	return PendingRequest{}, false
}

func (s *Snapshot) nodes(ids []domain.NodeID) ([]domain.Node, error) {
	out := make([]domain.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.Tree.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// OutlineEntry is one line of a depth-first rendering of the tree
type OutlineEntry struct {
	Node  domain.Node
	Depth int
	Heads []domain.ViewportID
}

// Outline walks every lineage depth first, roots in registration order and
// children in arrival order
func (s *Snapshot) Outline() []OutlineEntry {
	var out []OutlineEntry
	type frame struct {
		id    domain.NodeID
		depth int
	}
	roots := s.Tree.Roots()
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, err := s.Tree.Get(f.id)
		if err != nil {
			continue
		}
		out = append(out, OutlineEntry{Node: n, Depth: f.depth, Heads: s.Heads.ViewportsOnNode(n.ID)})
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n.Children[i], f.depth + 1})
		}
	}
	return out
}
