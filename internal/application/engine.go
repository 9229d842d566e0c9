package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tliron/commonlog"

	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

// DefaultRequestTimeout bounds how long a forwarded request waits for its confirmation
const DefaultRequestTimeout = 10 * time.Second

// PendingRequest is a navigation forwarded to the authority and not yet confirmed
type PendingRequest struct {
	Viewport domain.ViewportID `json:"viewport"`
	Kind     domain.EventKind  `json:"kind"` // request-back or request-forward
	Target   domain.NodeID     `json:"target"`
	URL      string            `json:"url"`
	Deadline time.Time         `json:"deadline,omitzero"` // zero when requests never expire
}

// confirms returns the confirmation event kind that settles the request
func (p PendingRequest) confirms() domain.EventKind {
	if p.Kind == domain.EventRequestBack {
		return domain.EventBackConfirmed
	}
	return domain.EventForwardConfirmed
}

// Engine reconciles locally predicted navigation state with facts reported by
// the authority. It owns the history tree and the head table.
//
// Apply and View are not safe for concurrent use. When Run is active, other
// goroutines must go through Submit and Snapshot.
type Engine struct {
	tree      *domain.Tree
	heads     *domain.HeadTable
	authority ports.Authority
	journal   ports.Journal
	log       commonlog.Logger

	timeout time.Duration
	now     func() time.Time

	pending map[domain.ViewportID]PendingRequest
	// confirmation kinds to discard, per viewport, oldest first
	stale map[domain.ViewportID][]domain.EventKind
	// viewports closed since they last held a head
	closed map[domain.ViewportID]struct{}

	inbox     chan submission
	snapshots chan chan *Snapshot
	seq       uint64
}

type outcome struct {
	result Result
	err    error
}

type submission struct {
	event domain.Event
	reply chan outcome
}

// Option configures an Engine
type Option func(*Engine)

// WithJournal records every processed event
func WithJournal(j ports.Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithRequestTimeout sets how long a forwarded request stays pending.
// Zero disables expiry.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithClock sets the time source for deadlines and node timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger overrides the engine logger
func WithLogger(log commonlog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTree starts the engine from an existing tree
func WithTree(tree *domain.Tree) Option {
	return func(e *Engine) {
		e.tree = tree
	}
}

// New creates an engine with an empty tree and no heads
func New(authority ports.Authority, opts ...Option) *Engine {
	e := &Engine{
		heads:     domain.NewHeadTable(),
		authority: authority,
		log:       commonlog.GetLogger("bonsai.engine"),
		timeout:   DefaultRequestTimeout,
		now:       time.Now,
		pending:   make(map[domain.ViewportID]PendingRequest),
		stale:     make(map[domain.ViewportID][]domain.EventKind),
		closed:    make(map[domain.ViewportID]struct{}),
		inbox:     make(chan submission),
		snapshots: make(chan chan *Snapshot),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tree == nil {
		e.tree = domain.NewTree(domain.WithClock(e.now))
	}
	return e
}

// Run drains events one at a time until ctx is cancelled or events is closed.
// Submissions and snapshot requests are served from the same loop.
func (e *Engine) Run(ctx context.Context, events <-chan domain.Event) error {
	var tick <-chan time.Time
	if e.timeout > 0 {
		ticker := time.NewTicker(sweepInterval(e.timeout))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.process(ctx, ev)

		case sub := <-e.inbox:
			res, err := e.process(ctx, sub.event)
			sub.reply <- outcome{result: res, err: err}

		case reply := <-e.snapshots:
			reply <- e.View()

		case <-tick:
			e.Expire(e.now())
		}
	}
}

func sweepInterval(timeout time.Duration) time.Duration {
	interval := timeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

// Submit hands a locally raised event to the running loop and waits for its result
func (e *Engine) Submit(ctx context.Context, ev domain.Event) (Result, error) {
	reply := make(chan outcome, 1)
	select {
	case e.inbox <- submission{event: ev, reply: reply}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case o := <-reply:
		return o.result, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Snapshot returns a copy of the state taken inside the running loop
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	reply := make(chan *Snapshot, 1)
	select {
	case e.snapshots <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// View returns a copy of the current state. Only call it from the goroutine
// that applies events.
func (e *Engine) View() *Snapshot {
	pending := make([]PendingRequest, 0, len(e.pending))
	for _, p := range e.pending {
		pending = append(pending, p)
	}
	slices.SortFunc(pending, func(a, b PendingRequest) int {
		if a.Viewport < b.Viewport {
			return -1
		}
		if a.Viewport > b.Viewport {
			return 1
		}
		return 0
	})
	return &Snapshot{
		Tree:    e.tree.Clone(),
		Heads:   e.heads.Clone(),
		Pending: pending,
	}
}

func (e *Engine) process(ctx context.Context, ev domain.Event) (Result, error) {
	e.seq++
	res, err := e.Apply(ctx, ev)

	diagnostic := ""
	if err != nil {
		diagnostic = err.Error()
		eventsDropped.WithLabelValues(string(ev.Kind)).Inc()
		if errors.Is(err, ErrStaleConfirmation) || errors.Is(err, ErrNoHead) {
			e.log.Debugf("dropped %s: %s", ev.Kind, err)
		} else {
			e.log.Warningf("dropped %s: %s", ev.Kind, err)
		}
	} else {
		eventsProcessed.WithLabelValues(string(ev.Kind), string(res.Resolution)).Inc()
	}
	treeSize.Set(float64(e.tree.Len()))

	if e.journal != nil {
		entry := ports.JournalEntry{Seq: e.seq, At: e.now(), Event: ev, Node: res.Node, Diagnostic: diagnostic}
		if jerr := e.journal.Append(ctx, entry); jerr != nil {
			e.log.Errorf("journal append %d: %s", e.seq, jerr)
		}
	}
	return res, err
}

// Apply processes one event against local state. Errors are diagnostics: the
// event was dropped and state is unchanged.
func (e *Engine) Apply(ctx context.Context, ev domain.Event) (Result, error) {
	if err := ValidateEvent(ev); err != nil {
		return Result{}, err
	}

	switch ev.Kind {
	case domain.EventSpawned:
		return e.spawned(ev)
	case domain.EventDidNavigate:
		return e.didNavigate(ev)
	case domain.EventWillNavigate:
		return e.willNavigate(ev)
	case domain.EventWillNavigateSameDocument:
		return e.willNavigateSameDocument(ev)
	case domain.EventBackConfirmed:
		return e.backConfirmed(ev)
	case domain.EventForwardConfirmed:
		return e.forwardConfirmed(ev)
	case domain.EventViewportClosed:
		return e.viewportClosed(ev)
	case domain.EventActiveChanged:
		e.log.Debugf("swap active viewport from %q to %q", e.heads.Active(), ev.Viewport)
		e.heads.SetActive(ev.Viewport)
		return Result{Resolution: ResolutionApplied, Viewport: ev.Viewport}, nil
	case domain.EventRequestBack, domain.EventRequestForward:
		return e.request(ctx, ev)
	case domain.EventCancelRequest:
		return e.cancel(ev)
	case domain.EventForgetNode:
		return e.forget(ev)
	}
	return Result{}, dropped(ev, ErrUnknownEvent, "unknown event kind")
}

// Restore moves the viewport's head to a node a confirmation already resolved
// to, without consulting pending requests. It rebuilds state from a journal,
// where the outcome of every confirmation is recorded.
func (e *Engine) Restore(ev domain.Event, node domain.NodeID) (Result, error) {
	if err := ValidateEvent(ev); err != nil {
		return Result{}, err
	}
	if _, err := e.headNode(ev); err != nil {
		return Result{}, err
	}
	to, err := e.tree.Get(node)
	if err != nil {
		return Result{}, dropped(ev, ErrNotFound, err.Error())
	}
	delete(e.pending, ev.Viewport)
	return e.moveHead(ev.Viewport, to), nil
}

// headNode resolves the viewport's head to its node
func (e *Engine) headNode(ev domain.Event) (domain.Node, error) {
	id, ok := e.heads.Head(ev.Viewport)
	if !ok {
		return domain.Node{}, dropped(ev, ErrNoHead, "no head")
	}
	n, err := e.tree.Get(id)
	if err != nil {
		return domain.Node{}, dropped(ev, ErrInvariantViolation, fmt.Sprintf("head points at missing node %s", id))
	}
	return n, nil
}

// placeHead gives a viewport its first head, forgetting any earlier life
func (e *Engine) placeHead(viewport domain.ViewportID, node domain.NodeID) {
	delete(e.closed, viewport)
	e.clearStale(viewport)
	e.heads.SetHead(viewport, node)
}

// afterClose turns a confirmation for a closed viewport into a no-op
func (e *Engine) afterClose(ev domain.Event) (Result, bool) {
	if _, ok := e.closed[ev.Viewport]; !ok {
		return Result{}, false
	}
	e.log.Debugf("ignore %s on closed viewport %s", ev.Kind, ev.Viewport)
	return Result{Resolution: ResolutionUnchanged, Viewport: ev.Viewport}, true
}

func (e *Engine) moveHead(viewport domain.ViewportID, to domain.Node) Result {
	e.log.Debugf("%s set head %s", viewport, to.Data.URL)
	e.heads.SetHead(viewport, to.ID)
	return Result{Resolution: ResolutionApplied, Viewport: viewport, Node: to.ID}
}

func (e *Engine) spawned(ev domain.Event) (Result, error) {
	e.log.Debugf("%s spawn %s", ev.Sender, ev.Viewport)

	senderHead, ok := e.heads.Head(ev.Sender)
	if !ok {
		e.log.Warningf("spawned %s from %s without a head; starting a new root", ev.Viewport, ev.Sender)
		id := e.tree.CreateRoot(ev.URL)
		e.placeHead(ev.Viewport, id)
		return Result{Resolution: ResolutionApplied, Viewport: ev.Viewport, Node: id}, nil
	}

	id, err := e.tree.CreateChild(senderHead, ev.URL)
	if err != nil {
		return Result{}, dropped(ev, ErrInvariantViolation, fmt.Sprintf("sender head: %s", err))
	}
	e.log.Debugf("link %s to %s", senderHead, id)
	e.placeHead(ev.Viewport, id)
	return Result{Resolution: ResolutionApplied, Viewport: ev.Viewport, Node: id}, nil
}

func (e *Engine) didNavigate(ev domain.Event) (Result, error) {
	if head, ok := e.heads.Head(ev.Viewport); ok {
		e.log.Debugf("%s did navigate %s; head already set", ev.Viewport, ev.URL)
		return Result{Resolution: ResolutionUnchanged, Viewport: ev.Viewport, Node: head}, nil
	}

	e.log.Debugf("%s did create root for %s", ev.Viewport, ev.URL)
	id := e.tree.CreateRoot(ev.URL)
	e.placeHead(ev.Viewport, id)
	return Result{Resolution: ResolutionApplied, Viewport: ev.Viewport, Node: id}, nil
}

func (e *Engine) willNavigate(ev domain.Event) (Result, error) {
	head, err := e.headNode(ev)
	if err != nil {
		return Result{}, err
	}

	if head.Data.URL == ev.URL {
		return Result{Resolution: ResolutionUnchanged, Viewport: ev.Viewport, Node: head.ID}, nil
	}

	if head.HasParent() {
		parent, err := e.tree.Get(head.Parent)
		if err != nil {
			return Result{}, dropped(ev, ErrInvariantViolation, fmt.Sprintf("parent of head: %s", err))
		}
		if parent.Data.URL == ev.URL {
			e.log.Debugf("%s nav to parent", ev.Viewport)
			e.clearStale(ev.Viewport)
			return e.moveHead(ev.Viewport, parent), nil
		}
	}

	id, err := e.tree.CreateChild(head.ID, ev.URL)
	if err != nil {
		return Result{}, dropped(ev, ErrInvariantViolation, err.Error())
	}
	e.log.Debugf("%s did create node for %s", ev.Viewport, ev.URL)
	e.clearStale(ev.Viewport)
	e.heads.SetHead(ev.Viewport, id)
	return Result{Resolution: ResolutionApplied, Viewport: ev.Viewport, Node: id}, nil
}

func (e *Engine) willNavigateSameDocument(ev domain.Event) (Result, error) {
	head, err := e.headNode(ev)
	if err != nil {
		return Result{}, err
	}
	if err := e.tree.UpdateInPlace(head.ID, ev.URL, ev.Scroll); err != nil {
		return Result{}, dropped(ev, ErrInvariantViolation, err.Error())
	}
	return Result{Resolution: ResolutionApplied, Viewport: ev.Viewport, Node: head.ID}, nil
}

func (e *Engine) backConfirmed(ev domain.Event) (Result, error) {
	if res, late := e.afterClose(ev); late {
		return res, nil
	}
	head, err := e.headNode(ev)
	if err != nil {
		return Result{}, err
	}
	if e.consumeStale(ev.Viewport, ev.Kind) {
		return Result{}, dropped(ev, ErrStaleConfirmation, "request was cancelled or expired")
	}
	e.settle(ev.Viewport, ev.Kind)

	if !head.HasParent() {
		return Result{}, dropped(ev, ErrNotFound, "head has no parent")
	}
	parent, err := e.tree.Get(head.Parent)
	if err != nil {
		return Result{}, dropped(ev, ErrInvariantViolation, err.Error())
	}
	return e.moveHead(ev.Viewport, parent), nil
}

func (e *Engine) forwardConfirmed(ev domain.Event) (Result, error) {
	if res, late := e.afterClose(ev); late {
		return res, nil
	}
	head, err := e.headNode(ev)
	if err != nil {
		return Result{}, err
	}
	if e.consumeStale(ev.Viewport, ev.Kind) {
		return Result{}, dropped(ev, ErrStaleConfirmation, "request was cancelled or expired")
	}
	pending, wasPending := e.settle(ev.Viewport, ev.Kind)

	for _, childID := range head.Children {
		child, err := e.tree.Get(childID)
		if err != nil {
			return Result{}, dropped(ev, ErrInvariantViolation, err.Error())
		}
		if child.Data.URL == ev.URL {
			return e.moveHead(ev.Viewport, child), nil
		}
	}

	// A forwarded request may target a deeper descendant; trust it when the
	// authority reports the same url.
	if wasPending && pending.URL == ev.URL {
		if target, err := e.tree.Get(pending.Target); err == nil && e.isDescendant(target.ID, head.ID) {
			return e.moveHead(ev.Viewport, target), nil
		}
	}
	return Result{}, dropped(ev, ErrNotFound, fmt.Sprintf("no child with url %s", ev.URL))
}

func (e *Engine) isDescendant(node, ancestor domain.NodeID) bool {
	chain, err := domain.Ancestors(e.tree, node)
	if err != nil {
		return false
	}
	return slices.Contains(chain, ancestor)
}

func (e *Engine) viewportClosed(ev domain.Event) (Result, error) {
	e.log.Debugf("try remove head %s", ev.Viewport)
	delete(e.pending, ev.Viewport)
	delete(e.stale, ev.Viewport)
	if e.heads.Active() == ev.Viewport {
		e.heads.SetActive("")
	}
	if !e.heads.RemoveHead(ev.Viewport) {
		return Result{Resolution: ResolutionUnchanged, Viewport: ev.Viewport}, nil
	}
	e.closed[ev.Viewport] = struct{}{}
	e.log.Debugf("removed head %s", ev.Viewport)
	return Result{Resolution: ResolutionApplied, Viewport: ev.Viewport}, nil
}

// request resolves a back or forward request, preferring a viewport already
// positioned on the target over a round trip to the authority.
func (e *Engine) request(ctx context.Context, ev domain.Event) (Result, error) {
	viewport := ev.Viewport
	if viewport == "" {
		viewport = e.heads.Active()
	}
	if viewport == "" {
		return Result{}, dropped(ev, ErrNoHead, "no active viewport")
	}
	ev.Viewport = viewport

	target, err := e.tree.Get(ev.Target)
	if err != nil {
		return Result{}, dropped(ev, ErrNotFound, err.Error())
	}

	head, hasHead := e.heads.Head(viewport)
	if hasHead && head == target.ID {
		return Result{Resolution: ResolutionAlreadyThere, Viewport: viewport, Node: target.ID}, nil
	}

	for _, other := range e.heads.ViewportsOnNode(target.ID) {
		if other == viewport {
			continue
		}
		e.log.Debugf("%s reuse %s for %s", viewport, other, target.Data.URL)
		e.heads.SetActive(other)
		commandsEmitted.WithLabelValues(string(domain.CommandActivateViewport)).Inc()
		if err := e.authority.ActivateViewport(ctx, other); err != nil {
			e.log.Errorf("activate viewport %s: %s", other, err)
		}
		return Result{Resolution: ResolutionReusedViewport, Viewport: other, Node: target.ID}, nil
	}

	if !hasHead {
		return Result{}, dropped(ev, ErrNoHead, "no head")
	}

	if prev, ok := e.pending[viewport]; ok {
		e.log.Debugf("%s superseded pending %s", viewport, prev.Kind)
		e.markStale(prev)
	}

	var cmdKind domain.CommandKind
	if ev.Kind == domain.EventRequestBack {
		cmdKind = domain.CommandPerformBack
		e.log.Debugf("%s dispatch go back to %s", viewport, target.Data.URL)
		err = e.authority.PerformBack(ctx, viewport, target)
	} else {
		cmdKind = domain.CommandPerformForward
		e.log.Debugf("%s dispatch go forward to %s", viewport, target.Data.URL)
		err = e.authority.PerformForward(ctx, viewport, target)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", cmdKind, err)
	}
	commandsEmitted.WithLabelValues(string(cmdKind)).Inc()

	p := PendingRequest{Viewport: viewport, Kind: ev.Kind, Target: target.ID, URL: target.Data.URL}
	if e.timeout > 0 {
		p.Deadline = e.now().Add(e.timeout)
	}
	e.pending[viewport] = p
	return Result{Resolution: ResolutionForwarded, Viewport: viewport, Node: target.ID}, nil
}

func (e *Engine) cancel(ev domain.Event) (Result, error) {
	p, ok := e.pending[ev.Viewport]
	if !ok {
		return Result{Resolution: ResolutionUnchanged, Viewport: ev.Viewport}, nil
	}
	e.markStale(p)
	return Result{Resolution: ResolutionApplied, Viewport: ev.Viewport, Node: p.Target}, nil
}

func (e *Engine) forget(ev domain.Event) (Result, error) {
	if !e.tree.Contains(ev.Target) {
		return Result{}, dropped(ev, ErrNotFound, fmt.Sprintf("node %s", ev.Target))
	}
	if e.heads.References(ev.Target) {
		return Result{}, dropped(ev, ErrNodeInUse, fmt.Sprintf("node %s", ev.Target))
	}
	if err := e.tree.Remove(ev.Target); err != nil {
		return Result{}, dropped(ev, ErrNotFound, err.Error())
	}
	return Result{Resolution: ResolutionApplied, Node: ev.Target}, nil
}

// Expire turns every pending request past its deadline into a stale marker
func (e *Engine) Expire(now time.Time) int {
	expired := 0
	for _, p := range e.pending {
		if p.Deadline.IsZero() || now.Before(p.Deadline) {
			continue
		}
		e.log.Infof("%s %s to %s timed out", p.Viewport, p.Kind, p.URL)
		e.markStale(p)
		requestsExpired.Inc()
		expired++
	}
	return expired
}

func (e *Engine) markStale(p PendingRequest) {
	delete(e.pending, p.Viewport)
	e.stale[p.Viewport] = append(e.stale[p.Viewport], p.confirms())
}

// consumeStale discards one stale marker of the given confirmation kind
func (e *Engine) consumeStale(viewport domain.ViewportID, kind domain.EventKind) bool {
	markers := e.stale[viewport]
	i := slices.Index(markers, kind)
	if i < 0 {
		return false
	}
	markers = slices.Delete(markers, i, i+1)
	staleConfirmations.WithLabelValues(string(kind)).Inc()
	if len(markers) == 0 {
		delete(e.stale, viewport)
	} else {
		e.stale[viewport] = markers
	}
	return true
}

// clearStale drops every stale marker of a viewport. A navigation fact that
// moves the head means the abandoned requests will not be confirmed.
func (e *Engine) clearStale(viewport domain.ViewportID) {
	if n := len(e.stale[viewport]); n > 0 {
		e.log.Debugf("%s moved on; dropping %d stale markers", viewport, n)
		delete(e.stale, viewport)
	}
}

// settle clears the pending request confirmed by kind
func (e *Engine) settle(viewport domain.ViewportID, kind domain.EventKind) (PendingRequest, bool) {
	p, ok := e.pending[viewport]
	if !ok || p.confirms() != kind {
		return PendingRequest{}, false
	}
	delete(e.pending, viewport)
	return p, true
}
