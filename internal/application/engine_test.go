package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

type recordingAuthority struct {
	mu       sync.Mutex
	commands []domain.Command
	err      error
}

func (a *recordingAuthority) record(cmd domain.Command) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.commands = append(a.commands, cmd)
	return nil
}

func (a *recordingAuthority) PerformBack(_ context.Context, v domain.ViewportID, backTo domain.Node) error {
	return a.record(domain.Command{Kind: domain.CommandPerformBack, Viewport: v, URL: backTo.Data.URL, Node: &backTo})
}

func (a *recordingAuthority) PerformForward(_ context.Context, v domain.ViewportID, forwardTo domain.Node) error {
	return a.record(domain.Command{Kind: domain.CommandPerformForward, Viewport: v, URL: forwardTo.Data.URL, Node: &forwardTo})
}

func (a *recordingAuthority) ActivateViewport(_ context.Context, v domain.ViewportID) error {
	return a.record(domain.Command{Kind: domain.CommandActivateViewport, Viewport: v})
}

func (a *recordingAuthority) sent() []domain.Command {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Command(nil), a.commands...)
}

type memoryJournal struct {
	mu      sync.Mutex
	entries []ports.JournalEntry
}

func (j *memoryJournal) Append(_ context.Context, e ports.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memoryJournal) Entries(context.Context) ([]ports.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]ports.JournalEntry(nil), j.entries...), nil
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *recordingAuthority) {
	t.Helper()
	auth := &recordingAuthority{}
	return New(auth, opts...), auth
}

func mustApply(t *testing.T, e *Engine, ev domain.Event) Result {
	t.Helper()
	res, err := e.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("Apply(%s) error = %v", ev.Kind, err)
	}
	if err := e.tree.Check(); err != nil {
		t.Fatalf("after %s: %v", ev.Kind, err)
	}
	assertHeadsValid(t, e)
	return res
}

func assertHeadsValid(t *testing.T, e *Engine) {
	t.Helper()
	for _, h := range e.heads.Entries() {
		if !e.tree.Contains(h.Node) {
			t.Fatalf("head %s points at missing node %s", h.Viewport, h.Node)
		}
	}
}

func headURL(t *testing.T, e *Engine, v domain.ViewportID) string {
	t.Helper()
	id, ok := e.heads.Head(v)
	if !ok {
		t.Fatalf("viewport %s has no head", v)
	}
	n, err := e.tree.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	return n.Data.URL
}

func TestEngine_DidNavigateCreatesRootOnce(t *testing.T) {
	e, _ := newTestEngine(t)

	first := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	second := mustApply(t, e, domain.DidNavigate("1", "https://a"))

	if first.Resolution != ResolutionApplied || second.Resolution != ResolutionUnchanged {
		t.Errorf("resolutions = %s, %s", first.Resolution, second.Resolution)
	}
	if e.tree.Len() != 1 || len(e.tree.Roots()) != 1 {
		t.Errorf("tree has %d nodes, %d roots; want 1, 1", e.tree.Len(), len(e.tree.Roots()))
	}
}

func TestEngine_WillNavigate(t *testing.T) {
	tests := []struct {
		name      string
		setup     []domain.Event
		event     domain.Event
		wantURL   string
		wantNodes int
		wantRes   Resolution
	}{
		{
			name:      "new url creates child",
			setup:     []domain.Event{domain.DidNavigate("1", "https://a")},
			event:     domain.WillNavigate("1", "https://b"),
			wantURL:   "https://b",
			wantNodes: 2,
			wantRes:   ResolutionApplied,
		},
		{
			name:      "same url is a no-op",
			setup:     []domain.Event{domain.DidNavigate("1", "https://a")},
			event:     domain.WillNavigate("1", "https://a"),
			wantURL:   "https://a",
			wantNodes: 1,
			wantRes:   ResolutionUnchanged,
		},
		{
			name: "parent url moves head back",
			setup: []domain.Event{
				domain.DidNavigate("1", "https://a"),
				domain.WillNavigate("1", "https://b"),
			},
			event:     domain.WillNavigate("1", "https://a"),
			wantURL:   "https://a",
			wantNodes: 2,
			wantRes:   ResolutionApplied,
		},
		{
			name: "grandparent url is a new child",
			setup: []domain.Event{
				domain.DidNavigate("1", "https://a"),
				domain.WillNavigate("1", "https://b"),
				domain.WillNavigate("1", "https://c"),
			},
			event:     domain.WillNavigate("1", "https://a"),
			wantURL:   "https://a",
			wantNodes: 4,
			wantRes:   ResolutionApplied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			for _, ev := range tt.setup {
				mustApply(t, e, ev)
			}
			res := mustApply(t, e, tt.event)
			if res.Resolution != tt.wantRes {
				t.Errorf("resolution = %s, want %s", res.Resolution, tt.wantRes)
			}
			if got := headURL(t, e, "1"); got != tt.wantURL {
				t.Errorf("head url = %s, want %s", got, tt.wantURL)
			}
			if e.tree.Len() != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", e.tree.Len(), tt.wantNodes)
			}
		})
	}
}

func TestEngine_WillNavigateTwiceCreatesOneNode(t *testing.T) {
	e, _ := newTestEngine(t)
	mustApply(t, e, domain.DidNavigate("1", "https://a"))
	mustApply(t, e, domain.WillNavigate("1", "https://b"))
	mustApply(t, e, domain.WillNavigate("1", "https://b"))

	if e.tree.Len() != 2 {
		t.Errorf("nodes = %d, want 2", e.tree.Len())
	}
}

func TestEngine_EventsWithoutHeadAreDropped(t *testing.T) {
	events := []domain.Event{
		domain.WillNavigate("9", "https://x"),
		domain.WillNavigateSameDocument("9", "https://x#a", 0),
		domain.BackConfirmed("9"),
		domain.ForwardConfirmed("9", "https://x"),
	}

	for _, ev := range events {
		t.Run(string(ev.Kind), func(t *testing.T) {
			e, _ := newTestEngine(t)
			_, err := e.Apply(context.Background(), ev)
			if !errors.Is(err, ErrNoHead) {
				t.Errorf("expected ErrNoHead, got %v", err)
			}
			var evErr *EventError
			if !errors.As(err, &evErr) || evErr.Kind != ev.Kind {
				t.Errorf("expected EventError for %s, got %v", ev.Kind, err)
			}
			if e.tree.Len() != 0 || e.heads.Len() != 0 {
				t.Error("state changed by dropped event")
			}
		})
	}
}

func TestEngine_InvalidEvents(t *testing.T) {
	tests := []struct {
		name  string
		event domain.Event
	}{
		{"missing url", domain.Event{Kind: domain.EventWillNavigate, Viewport: "1"}},
		{"missing viewport", domain.Event{Kind: domain.EventDidNavigate, URL: "https://a"}},
		{"missing sender", domain.Event{Kind: domain.EventSpawned, Viewport: "2", URL: "https://a"}},
		{"missing target", domain.Event{Kind: domain.EventRequestBack, Viewport: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			_, err := e.Apply(context.Background(), tt.event)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}

	e, _ := newTestEngine(t)
	if _, err := e.Apply(context.Background(), domain.Event{Kind: "bogus", Viewport: "1"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestEngine_Spawned(t *testing.T) {
	e, _ := newTestEngine(t)
	root := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	spawned := mustApply(t, e, domain.Spawned("1", "2", "https://popup"))

	parent, ok, _ := e.tree.ParentOf(spawned.Node)
	if !ok || parent != root.Node {
		t.Errorf("spawned node parent = %s, want %s", parent, root.Node)
	}
	if head, _ := e.heads.Head("2"); head != spawned.Node {
		t.Errorf("new viewport head = %s, want %s", head, spawned.Node)
	}
	if head, _ := e.heads.Head("1"); head != root.Node {
		t.Error("sender head moved")
	}
}

func TestEngine_SpawnedWithoutSenderHeadStartsRoot(t *testing.T) {
	e, _ := newTestEngine(t)
	res := mustApply(t, e, domain.Spawned("ghost", "2", "https://popup"))

	roots := e.tree.Roots()
	if len(roots) != 1 || roots[0] != res.Node {
		t.Errorf("roots = %v, want [%s]", roots, res.Node)
	}
}

func TestEngine_SameDocumentUpdatesInPlace(t *testing.T) {
	e, _ := newTestEngine(t)
	root := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	mustApply(t, e, domain.WillNavigateSameDocument("1", "https://a#top", 42))

	n, _ := e.tree.Get(root.Node)
	if n.Data.URL != "https://a#top" || n.Data.Scroll != 42 {
		t.Errorf("data = %+v", n.Data)
	}
	if e.tree.Len() != 1 {
		t.Errorf("nodes = %d, want 1", e.tree.Len())
	}
}

func TestEngine_BackForwardRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	b := mustApply(t, e, domain.WillNavigate("1", "https://b"))

	back := mustApply(t, e, domain.BackConfirmed("1"))
	if back.Node != a.Node {
		t.Errorf("after back head = %s, want %s", back.Node, a.Node)
	}

	fwd := mustApply(t, e, domain.ForwardConfirmed("1", "https://b"))
	if fwd.Node != b.Node {
		t.Errorf("after forward head = %s, want %s", fwd.Node, b.Node)
	}
	if e.tree.Len() != 2 {
		t.Errorf("nodes = %d, want 2", e.tree.Len())
	}
}

func TestEngine_BackAtRootIsDropped(t *testing.T) {
	e, _ := newTestEngine(t)
	mustApply(t, e, domain.DidNavigate("1", "https://a"))
	if _, err := e.Apply(context.Background(), domain.BackConfirmed("1")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEngine_ForwardPicksFirstChildWithURL(t *testing.T) {
	e, _ := newTestEngine(t)
	mustApply(t, e, domain.DidNavigate("1", "https://a"))
	first := mustApply(t, e, domain.WillNavigate("1", "https://b"))
	mustApply(t, e, domain.BackConfirmed("1"))
	// a second child with the same url, created by a spawn from viewport 1
	mustApply(t, e, domain.Spawned("1", "2", "https://b"))

	res := mustApply(t, e, domain.ForwardConfirmed("1", "https://b"))
	if res.Node != first.Node {
		t.Errorf("forward picked %s, want first child %s", res.Node, first.Node)
	}

	if _, err := e.Apply(context.Background(), domain.ForwardConfirmed("1", "https://none")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown url, got %v", err)
	}
}

func TestEngine_ViewportClosed(t *testing.T) {
	e, _ := newTestEngine(t)
	mustApply(t, e, domain.DidNavigate("1", "https://a"))
	mustApply(t, e, domain.WillNavigate("1", "https://b"))
	mustApply(t, e, domain.ActiveChanged("1"))

	res := mustApply(t, e, domain.ViewportClosed("1"))
	if res.Resolution != ResolutionApplied {
		t.Errorf("resolution = %s", res.Resolution)
	}
	if e.tree.Len() != 2 {
		t.Errorf("history pruned on close: %d nodes", e.tree.Len())
	}
	if e.heads.Active() != "" {
		t.Errorf("active = %q, want cleared", e.heads.Active())
	}

	again := mustApply(t, e, domain.ViewportClosed("1"))
	if again.Resolution != ResolutionUnchanged {
		t.Errorf("second close resolution = %s", again.Resolution)
	}

	for _, late := range []domain.Event{domain.BackConfirmed("1"), domain.ForwardConfirmed("1", "https://b")} {
		res, err := e.Apply(context.Background(), late)
		if err != nil {
			t.Errorf("%s after close: error = %v, want no-op", late.Kind, err)
		}
		if res.Resolution != ResolutionUnchanged {
			t.Errorf("%s after close: resolution = %s", late.Kind, res.Resolution)
		}
	}
	if _, ok := e.heads.Head("1"); ok {
		t.Error("late confirmation resurrected head")
	}

	// a viewport never seen is still reported
	if _, err := e.Apply(context.Background(), domain.BackConfirmed("7")); !errors.Is(err, ErrNoHead) {
		t.Errorf("unknown viewport: expected ErrNoHead, got %v", err)
	}

	// a reused viewport id gets confirmations again
	mustApply(t, e, domain.DidNavigate("1", "https://c"))
	mustApply(t, e, domain.WillNavigate("1", "https://d"))
	mustApply(t, e, domain.BackConfirmed("1"))
	if headURL(t, e, "1") != "https://c" {
		t.Error("back on reopened viewport was ignored")
	}
}

func TestEngine_RequestForwardReusesViewport(t *testing.T) {
	e, auth := newTestEngine(t)
	parent := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	n := mustApply(t, e, domain.Spawned("1", "2", "https://n"))
	// viewport 1 stays on the parent, viewport 2 sits on N
	mustApply(t, e, domain.ActiveChanged("1"))
	_ = parent

	res, err := e.Apply(context.Background(), domain.RequestForward("1", n.Node))
	if err != nil {
		t.Fatalf("RequestForward error = %v", err)
	}
	if res.Resolution != ResolutionReusedViewport || res.Viewport != "2" {
		t.Errorf("result = %+v, want reuse of viewport 2", res)
	}
	if e.heads.Active() != "2" {
		t.Errorf("active = %s, want 2", e.heads.Active())
	}

	cmds := auth.sent()
	if len(cmds) != 1 || cmds[0].Kind != domain.CommandActivateViewport || cmds[0].Viewport != "2" {
		t.Errorf("commands = %+v, want only activate-viewport 2", cmds)
	}
}

func TestEngine_RequestReusePrefersFirstViewport(t *testing.T) {
	e, _ := newTestEngine(t)
	root := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	child := mustApply(t, e, domain.Spawned("1", "3", "https://n"))
	mustApply(t, e, domain.DidNavigate("2", "https://other"))
	e.heads.SetHead("4", child.Node)
	_ = root

	for i := 0; i < 3; i++ {
		res, err := e.Apply(context.Background(), domain.RequestForward("2", child.Node))
		if err != nil {
			t.Fatal(err)
		}
		if res.Viewport != "3" {
			t.Fatalf("attempt %d reused %s, want 3", i, res.Viewport)
		}
	}
}

func TestEngine_RequestBackForwardsToAuthority(t *testing.T) {
	e, auth := newTestEngine(t)
	a := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	mustApply(t, e, domain.WillNavigate("1", "https://b"))
	mustApply(t, e, domain.ActiveChanged("1"))

	res, err := e.Apply(context.Background(), domain.RequestBack("", a.Node))
	if err != nil {
		t.Fatalf("RequestBack error = %v", err)
	}
	if res.Resolution != ResolutionForwarded || res.Viewport != "1" {
		t.Errorf("result = %+v", res)
	}

	cmds := auth.sent()
	if len(cmds) != 1 || cmds[0].Kind != domain.CommandPerformBack || cmds[0].Node.ID != a.Node {
		t.Fatalf("commands = %+v", cmds)
	}
	if _, ok := e.View().PendingFor("1"); !ok {
		t.Error("expected pending request")
	}

	if headURL(t, e, "1") != "https://b" {
		t.Error("head moved before confirmation")
	}
	mustApply(t, e, domain.BackConfirmed("1"))
	if headURL(t, e, "1") != "https://a" {
		t.Error("head did not move on confirmation")
	}
	if _, ok := e.View().PendingFor("1"); ok {
		t.Error("pending request not settled")
	}
}

func TestEngine_RequestAlreadyThere(t *testing.T) {
	e, auth := newTestEngine(t)
	a := mustApply(t, e, domain.DidNavigate("1", "https://a"))

	res, err := e.Apply(context.Background(), domain.RequestForward("1", a.Node))
	if err != nil {
		t.Fatal(err)
	}
	if res.Resolution != ResolutionAlreadyThere {
		t.Errorf("resolution = %s", res.Resolution)
	}
	if len(auth.sent()) != 0 {
		t.Error("unexpected command")
	}
}

func TestEngine_RequestErrors(t *testing.T) {
	e, auth := newTestEngine(t)
	a := mustApply(t, e, domain.DidNavigate("1", "https://a"))

	if _, err := e.Apply(context.Background(), domain.RequestBack("", a.Node)); !errors.Is(err, ErrNoHead) {
		t.Errorf("no active viewport: expected ErrNoHead, got %v", err)
	}
	if _, err := e.Apply(context.Background(), domain.RequestBack("1", "missing")); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown target: expected ErrNotFound, got %v", err)
	}

	auth.err = errors.New("authority gone")
	b := mustApply(t, e, domain.WillNavigate("1", "https://b"))
	mustApply(t, e, domain.BackConfirmed("1"))
	if _, err := e.Apply(context.Background(), domain.RequestForward("1", b.Node)); err == nil {
		t.Error("expected send failure to surface")
	}
	if _, ok := e.View().PendingFor("1"); ok {
		t.Error("failed send left a pending request")
	}
}

func TestEngine_CancelledRequestIgnoresLateConfirmation(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	mustApply(t, e, domain.WillNavigate("1", "https://b"))

	if _, err := e.Apply(context.Background(), domain.RequestBack("1", a.Node)); err != nil {
		t.Fatal(err)
	}
	mustApply(t, e, domain.CancelRequest("1"))

	if _, err := e.Apply(context.Background(), domain.BackConfirmed("1")); !errors.Is(err, ErrStaleConfirmation) {
		t.Errorf("expected ErrStaleConfirmation, got %v", err)
	}
	if headURL(t, e, "1") != "https://b" {
		t.Error("stale confirmation moved head")
	}

	// the marker is consumed; an organic back afterwards applies
	mustApply(t, e, domain.BackConfirmed("1"))
	if headURL(t, e, "1") != "https://a" {
		t.Error("organic back after stale marker was ignored")
	}
}

func TestEngine_ExpiredRequestBecomesStale(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t,
		WithRequestTimeout(time.Second),
		WithClock(func() time.Time { return now }),
	)
	mustApply(t, e, domain.DidNavigate("1", "https://a"))
	b := mustApply(t, e, domain.WillNavigate("1", "https://b"))
	mustApply(t, e, domain.BackConfirmed("1"))

	if _, err := e.Apply(context.Background(), domain.RequestForward("1", b.Node)); err != nil {
		t.Fatal(err)
	}

	if n := e.Expire(now.Add(500 * time.Millisecond)); n != 0 {
		t.Errorf("expired %d before deadline", n)
	}
	if n := e.Expire(now.Add(2 * time.Second)); n != 1 {
		t.Errorf("expired %d, want 1", n)
	}

	if _, err := e.Apply(context.Background(), domain.ForwardConfirmed("1", "https://b")); !errors.Is(err, ErrStaleConfirmation) {
		t.Errorf("expected ErrStaleConfirmation, got %v", err)
	}
}

func TestEngine_NavigationDropsStaleMarkers(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		navigate domain.Event
		wantHead string // after the organic back that follows
	}{
		{name: "new child", navigate: domain.WillNavigate("1", "https://c"), wantHead: "https://b"},
		{name: "parent url", navigate: domain.WillNavigate("1", "https://a"), wantHead: "https://a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t,
				WithRequestTimeout(time.Second),
				WithClock(func() time.Time { return now }),
			)
			a := mustApply(t, e, domain.DidNavigate("1", "https://a"))
			mustApply(t, e, domain.WillNavigate("1", "https://b"))

			if _, err := e.Apply(context.Background(), domain.RequestBack("1", a.Node)); err != nil {
				t.Fatal(err)
			}
			if n := e.Expire(now.Add(time.Hour)); n != 1 {
				t.Fatalf("expired %d, want 1", n)
			}

			// the authority never answered and the user moved on
			mustApply(t, e, tt.navigate)
			if tt.navigate.URL == "https://a" {
				// back at the root; go forward again to have somewhere to go back from
				mustApply(t, e, domain.WillNavigate("1", "https://b"))
			}

			res, err := e.Apply(context.Background(), domain.BackConfirmed("1"))
			if err != nil {
				t.Fatalf("organic back swallowed: %v", err)
			}
			if res.Resolution != ResolutionApplied {
				t.Errorf("resolution = %s", res.Resolution)
			}
			if got := headURL(t, e, "1"); got != tt.wantHead {
				t.Errorf("head = %s, want %s", got, tt.wantHead)
			}
		})
	}
}

func TestEngine_SpawnReopensClosedViewport(t *testing.T) {
	e, _ := newTestEngine(t)
	mustApply(t, e, domain.DidNavigate("2", "https://a"))
	mustApply(t, e, domain.ViewportClosed("2"))

	// the authority reuses the id for a spawned viewport
	mustApply(t, e, domain.DidNavigate("1", "https://x"))
	mustApply(t, e, domain.Spawned("1", "2", "https://y"))
	mustApply(t, e, domain.BackConfirmed("2"))
	if headURL(t, e, "2") != "https://x" {
		t.Error("back on spawned viewport was ignored")
	}
}

func TestEngine_ClosingViewportClearsPending(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	mustApply(t, e, domain.WillNavigate("1", "https://b"))
	if _, err := e.Apply(context.Background(), domain.RequestBack("1", a.Node)); err != nil {
		t.Fatal(err)
	}

	mustApply(t, e, domain.ViewportClosed("1"))
	if len(e.View().Pending) != 0 {
		t.Error("pending request survived viewport close")
	}
	res := mustApply(t, e, domain.BackConfirmed("1"))
	if res.Resolution != ResolutionUnchanged {
		t.Errorf("late confirmation resolution = %s", res.Resolution)
	}
}

func TestEngine_ForwardToDeepDescendant(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	mustApply(t, e, domain.WillNavigate("1", "https://b"))
	deep := mustApply(t, e, domain.WillNavigate("1", "https://c"))
	mustApply(t, e, domain.BackConfirmed("1"))
	mustApply(t, e, domain.BackConfirmed("1"))

	if head, _ := e.heads.Head("1"); head != a.Node {
		t.Fatalf("setup: head = %s, want %s", head, a.Node)
	}
	if _, err := e.Apply(context.Background(), domain.RequestForward("1", deep.Node)); err != nil {
		t.Fatal(err)
	}
	res := mustApply(t, e, domain.ForwardConfirmed("1", "https://c"))
	if res.Node != deep.Node {
		t.Errorf("head = %s, want %s", res.Node, deep.Node)
	}
}

func TestEngine_ForgetNode(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustApply(t, e, domain.DidNavigate("1", "https://a"))
	b := mustApply(t, e, domain.WillNavigate("1", "https://b"))
	c := mustApply(t, e, domain.WillNavigate("1", "https://c"))
	mustApply(t, e, domain.BackConfirmed("1"))
	mustApply(t, e, domain.BackConfirmed("1"))

	mustApply(t, e, domain.ForgetNode(b.Node))
	if e.tree.Contains(b.Node) {
		t.Error("node not removed")
	}
	if _, ok, _ := e.tree.ParentOf(c.Node); ok {
		t.Error("child of removed node should be a root")
	}

	if _, err := e.Apply(context.Background(), domain.ForgetNode(a.Node)); !errors.Is(err, ErrNodeInUse) {
		t.Errorf("expected ErrNodeInUse, got %v", err)
	}
	if _, err := e.Apply(context.Background(), domain.ForgetNode(b.Node)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEngine_RunServesSubmitAndSnapshot(t *testing.T) {
	journal := &memoryJournal{}
	e, auth := newTestEngine(t, WithJournal(journal))
	events := make(chan domain.Event)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, events) }()

	events <- domain.DidNavigate("1", "https://a")
	events <- domain.WillNavigate("1", "https://b")
	events <- domain.ActiveChanged("1")

	snap, err := e.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	head, ok := snap.ActiveHead()
	if !ok || head.Data.URL != "https://b" {
		t.Fatalf("active head = %+v, %v", head, ok)
	}
	parent, ok := snap.Parent(head.ID)
	if !ok {
		t.Fatal("head has no parent")
	}

	res, err := e.Submit(ctx, domain.RequestBack("", parent.ID))
	if err != nil {
		t.Fatal(err)
	}
	if res.Resolution != ResolutionForwarded {
		t.Errorf("resolution = %s", res.Resolution)
	}
	if len(auth.sent()) != 1 {
		t.Errorf("commands = %+v", auth.sent())
	}

	close(events)
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	cancel()

	entries, _ := journal.Entries(context.Background())
	if len(entries) != 4 {
		t.Fatalf("journal has %d entries, want 4", len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != uint64(i+1) {
			t.Errorf("entry %d seq = %d", i, entry.Seq)
		}
	}
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	e, _ := newTestEngine(t, WithRequestTimeout(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, nil) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	if _, err := e.Snapshot(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Snapshot() after stop error = %v", err)
	}
}
