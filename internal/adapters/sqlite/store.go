package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"bonsai/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

var log = commonlog.GetLogger("bonsai.sqlite")

// Store implements ports.Journal and ports.WorkspaceDirectory on one SQLite file
type Store struct {
	db      *sql.DB
	path    string
	session string
}

// Ensure Store implements the ports it serves
var (
	_ ports.Journal            = (*Store)(nil)
	_ ports.WorkspaceDirectory = (*Store)(nil)
)

// Open creates the database file and schema if needed. Entries appended
// through this Store belong to a fresh session.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL lets the TUI read while the service writes
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at INTEGER NOT NULL,
			kind TEXT NOT NULL,
			viewport TEXT NOT NULL DEFAULT '',
			sender TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			scroll REAL NOT NULL DEFAULT 0,
			target TEXT NOT NULL DEFAULT '',
			node TEXT NOT NULL DEFAULT '',
			diagnostic TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS workspace_items (
			workspace_id TEXT NOT NULL,
			workspace_name TEXT NOT NULL,
			group_id TEXT NOT NULL,
			group_name TEXT NOT NULL,
			item_id TEXT NOT NULL,
			url TEXT NOT NULL,
			base_url TEXT NOT NULL,
			PRIMARY KEY (workspace_id, group_id, item_id)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_journal_session ON journal(session, id);
		CREATE INDEX IF NOT EXISTS idx_items_base_url ON workspace_items(base_url);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	s := &Store{db: db, path: path, session: uuid.NewString()}
	log.Debugf("opened %s, session %s", path, s.session)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Session returns the id under which this Store appends journal entries
func (s *Store) Session() string {
	return s.session
}

// Path returns the database file
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the schema version recorded in the database
func (s *Store) SchemaVersion(ctx context.Context) string {
	var version string
	s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	return version
}
