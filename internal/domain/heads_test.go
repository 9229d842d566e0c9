package domain

import (
	"slices"
	"testing"
)

func TestHeadTable_SetAndRemove(t *testing.T) {
	h := NewHeadTable()
	h.SetHead("1", "a")
	h.SetHead("2", "a")
	h.SetHead("1", "b")

	if got, ok := h.Head("1"); !ok || got != "b" {
		t.Errorf("Head(1) = %s, %v; want b", got, ok)
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}

	if !h.RemoveHead("1") {
		t.Error("RemoveHead(1) = false, want true")
	}
	if h.RemoveHead("1") {
		t.Error("second RemoveHead(1) = true, want false")
	}
	if _, ok := h.Head("1"); ok {
		t.Error("head 1 still present")
	}
}

func TestHeadTable_ViewportsOnNodeKeepsInsertionOrder(t *testing.T) {
	h := NewHeadTable()
	h.SetHead("3", "x")
	h.SetHead("1", "y")
	h.SetHead("2", "x")
	h.SetHead("3", "x") // overwrite keeps position

	got := h.ViewportsOnNode("x")
	if !slices.Equal(got, []ViewportID{"3", "2"}) {
		t.Errorf("ViewportsOnNode(x) = %v, want [3 2]", got)
	}
	if len(h.ViewportsOnNode("z")) != 0 {
		t.Error("expected no viewports on z")
	}
	if !h.References("y") || h.References("z") {
		t.Error("References() mismatch")
	}
}

func TestHeadTable_CloneIsIndependent(t *testing.T) {
	h := NewHeadTable()
	h.SetHead("1", "a")
	h.SetActive("1")

	c := h.Clone()
	h.SetHead("2", "b")
	h.SetActive("2")

	if c.Len() != 1 || c.Active() != "1" {
		t.Errorf("clone observed mutation: len=%d active=%s", c.Len(), c.Active())
	}
	if !slices.Equal(c.Entries(), []HeadEntry{{Viewport: "1", Node: "a"}}) {
		t.Errorf("Entries() = %v", c.Entries())
	}
}
