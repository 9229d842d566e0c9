package ports

import (
	"context"
	"time"

	"bonsai/internal/domain"
)

// JournalEntry records one processed event and how it was resolved
type JournalEntry struct {
	Seq        uint64
	At         time.Time
	Event      domain.Event
	Node       domain.NodeID // node the event resolved to, if any
	Diagnostic string        // empty when the event applied cleanly
}

// Journal persists the processed event stream so that a session can be
// inspected or replayed later.
type Journal interface {
	Append(ctx context.Context, entry JournalEntry) error
	Entries(ctx context.Context) ([]JournalEntry, error)
}
