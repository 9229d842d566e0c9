package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bonsai/internal/application"
	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

// ReplayResult contains the state rebuilt from a journal
type ReplayResult struct {
	Snapshot *application.Snapshot
	Applied  int
	Dropped  int
}

// ReplayCommand rebuilds engine state by reapplying journaled events.
// Requests are not replayed: their outcome was already journaled as facts.
type ReplayCommand struct {
	journal ports.Journal
}

// NewReplayCommand creates a new ReplayCommand
func NewReplayCommand(journal ports.Journal) *ReplayCommand {
	return &ReplayCommand{journal: journal}
}

// Execute replays the journal into a fresh engine
func (c *ReplayCommand) Execute(ctx context.Context) (*ReplayResult, error) {
	entries, err := c.journal.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return ReplayEntries(ctx, entries), nil
}

// ReplayEntries applies entries in order to a fresh engine. Nodes created
// during replay reuse the ids recorded in the journal, so forget-node entries
// and ids shown to users stay valid.
func ReplayEntries(ctx context.Context, entries []ports.JournalEntry) *ReplayResult {
	var next domain.NodeID
	tree := domain.NewTree(domain.WithIDSource(func() domain.NodeID {
		if next != "" {
			id := next
			next = ""
			return id
		}
		return domain.NodeID(uuid.NewString())
	}))
	engine := application.New(discardAuthority{},
		application.WithRequestTimeout(0),
		application.WithTree(tree),
	)

	result := &ReplayResult{}
	for _, entry := range entries {
		ev := entry.Event
		if ev.Kind.IsRequest() || ev.Kind == domain.EventCancelRequest {
			continue
		}
		if entry.Diagnostic != "" {
			// dropped when it first arrived
			result.Dropped++
			continue
		}
		var err error
		if isConfirmation(ev.Kind) && entry.Node != "" {
			_, err = engine.Restore(ev, entry.Node)
		} else {
			next = entry.Node
			_, err = engine.Apply(ctx, ev)
			next = ""
		}
		if err != nil {
			result.Dropped++
			continue
		}
		result.Applied++
	}
	result.Snapshot = engine.View()
	return result
}

// isConfirmation reports whether the kind settles a back or forward request.
// Its journaled outcome depended on pending requests that replay does not
// rebuild.
func isConfirmation(kind domain.EventKind) bool {
	return kind == domain.EventBackConfirmed || kind == domain.EventForwardConfirmed
}

// ReplayEvents applies bare events, for streams that carry no journal metadata
func ReplayEvents(ctx context.Context, events []domain.Event) *ReplayResult {
	entries := make([]ports.JournalEntry, len(events))
	for i, ev := range events {
		entries[i] = ports.JournalEntry{Seq: uint64(i + 1), Event: ev}
	}
	return ReplayEntries(ctx, entries)
}

type discardAuthority struct{}

func (discardAuthority) PerformBack(context.Context, domain.ViewportID, domain.Node) error {
	return nil
}

func (discardAuthority) PerformForward(context.Context, domain.ViewportID, domain.Node) error {
	return nil
}

func (discardAuthority) ActivateViewport(context.Context, domain.ViewportID) error {
	return nil
}
