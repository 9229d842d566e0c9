package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bonsai/internal/domain"
	"bonsai/internal/ports"
)

// SessionInfo summarizes one recorded session
type SessionInfo struct {
	ID      string
	Started time.Time
	Entries int
}

// Append records an entry under the current session
func (s *Store) Append(ctx context.Context, entry ports.JournalEntry) error {
	ev := entry.Event
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (session, seq, at, kind, viewport, sender, url, scroll, target, node, diagnostic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.session, entry.Seq, entry.At.UnixNano(), string(ev.Kind), string(ev.Viewport), string(ev.Sender),
		ev.URL, ev.Scroll, string(ev.Target), string(entry.Node), entry.Diagnostic)
	if err != nil {
		return fmt.Errorf("failed to append journal entry %d: %w", entry.Seq, err)
	}
	return nil
}

// Entries returns the current session's entries in append order
func (s *Store) Entries(ctx context.Context) ([]ports.JournalEntry, error) {
	return s.SessionEntries(ctx, s.session)
}

// SessionEntries returns the entries of any recorded session in append order
func (s *Store) SessionEntries(ctx context.Context, session string) ([]ports.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, at, kind, viewport, sender, url, scroll, target, node, diagnostic
		FROM journal WHERE session = ? ORDER BY id
	`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ports.JournalEntry
	for rows.Next() {
		var (
			e                              ports.JournalEntry
			at                             int64
			kind, viewport, sender, target string
			node                           string
		)
		if err := rows.Scan(&e.Seq, &at, &kind, &viewport, &sender, &e.Event.URL, &e.Event.Scroll, &target, &node, &e.Diagnostic); err != nil {
			return nil, err
		}
		e.At = time.Unix(0, at)
		e.Event.Kind = domain.EventKind(kind)
		e.Event.Viewport = domain.ViewportID(viewport)
		e.Event.Sender = domain.ViewportID(sender)
		e.Event.Target = domain.NodeID(target)
		e.Node = domain.NodeID(node)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sessions lists recorded sessions, most recent first
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, MIN(at), COUNT(*)
		FROM journal GROUP BY session ORDER BY MIN(id) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var started int64
		if err := rows.Scan(&info.ID, &started, &info.Entries); err != nil {
			return nil, err
		}
		info.Started = time.Unix(0, started)
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// LatestSession returns the most recent session other than the current one
func (s *Store) LatestSession(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT session FROM journal WHERE session != ? ORDER BY id DESC LIMIT 1
	`, s.session).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

// SessionJournal is a read-only view of a past session, usable wherever a
// ports.Journal is expected
type SessionJournal struct {
	store   *Store
	session string
}

// ForSession returns a journal view of the given session
func (s *Store) ForSession(session string) *SessionJournal {
	return &SessionJournal{store: s, session: session}
}

// Append always fails: past sessions are immutable
func (j *SessionJournal) Append(context.Context, ports.JournalEntry) error {
	return fmt.Errorf("session %s is read-only", j.session)
}

// Entries returns the session's entries
func (j *SessionJournal) Entries(ctx context.Context) ([]ports.JournalEntry, error) {
	return j.store.SessionEntries(ctx, j.session)
}
