package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"bonsai/internal/domain"
)

// PutItem inserts or replaces a workspace item
func (s *Store) PutItem(ctx context.Context, item domain.WorkspaceItem) error {
	_, err := s.db.ExecContext(ctx, upsertItem, itemArgs(item)...)
	if err != nil {
		return fmt.Errorf("failed to store item %s: %w", item.ItemID, err)
	}
	return nil
}

// ImportItems stores items in a single transaction
func (s *Store) ImportItems(ctx context.Context, items []domain.WorkspaceItem) (int, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	for i, item := range items {
		if err := tx.upsertItem(item); err != nil {
			tx.rollback()
			return i, fmt.Errorf("failed to import item %s: %w", item.ItemID, err)
		}
	}
	if err := tx.commit(); err != nil {
		return 0, err
	}
	return len(items), nil
}

// DeleteItem removes an item and reports whether it existed
func (s *Store) DeleteItem(ctx context.Context, workspaceID, groupID, itemID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM workspace_items WHERE workspace_id = ? AND group_id = ? AND item_id = ?
	`, workspaceID, groupID, itemID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LookupURL returns every item whose URL matches, ignoring fragments
func (s *Store) LookupURL(ctx context.Context, url string) ([]domain.WorkspaceRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workspace_id, group_id, item_id, workspace_name, group_name
		FROM workspace_items WHERE base_url = ?
		ORDER BY workspace_name, group_name, item_id
	`, domain.BaseURL(url))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.WorkspaceRef
	for rows.Next() {
		var r domain.WorkspaceRef
		if err := rows.Scan(&r.WorkspaceID, &r.GroupID, &r.ItemID, &r.WorkspaceName, &r.GroupName); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// Items returns every stored item
func (s *Store) Items(ctx context.Context) ([]domain.WorkspaceItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workspace_id, workspace_name, group_id, group_name, item_id, url
		FROM workspace_items ORDER BY workspace_name, group_name, item_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.WorkspaceItem
	for rows.Next() {
		var it domain.WorkspaceItem
		if err := rows.Scan(&it.WorkspaceID, &it.WorkspaceName, &it.GroupID, &it.GroupName, &it.ItemID, &it.URL); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const upsertItem = `
	INSERT OR REPLACE INTO workspace_items
		(workspace_id, workspace_name, group_id, group_name, item_id, url, base_url)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

func itemArgs(item domain.WorkspaceItem) []any {
	return []any{
		item.WorkspaceID, item.WorkspaceName, item.GroupID, item.GroupName,
		item.ItemID, item.URL, domain.BaseURL(item.URL),
	}
}

// itemTx batches workspace writes
type itemTx struct {
	tx *sql.Tx
}

func (s *Store) beginTx(ctx context.Context) (*itemTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &itemTx{tx: tx}, nil
}

func (t *itemTx) upsertItem(item domain.WorkspaceItem) error {
	_, err := t.tx.Exec(upsertItem, itemArgs(item)...)
	return err
}

func (t *itemTx) commit() error {
	return t.tx.Commit()
}

func (t *itemTx) rollback() error {
	return t.tx.Rollback()
}
