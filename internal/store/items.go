package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/order"
)

// Persistence is per-item and last-write-wins: every call rewrites whole rows
// keyed by id, so two in-flight writes for the same item cannot corrupt the
// store, only reorder.

const itemColumns = `id, parent_id, kind, title, notes, priority, is_completed,
	completed_at_unixms, sort_order, prev_child_states, category_id,
	created_at_unixms, updated_at_unixms`

func (s Store) CreateItem(ctx context.Context, it model.Item) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return upsertItem(ctx, db, it)
}

func (s Store) UpdateItem(ctx context.Context, it model.Item) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return upsertItem(ctx, db, it)
}

// DeleteItems removes the given items and any commitments referencing them in
// one transaction. Descendant expansion is the caller's job.
func (s Store) DeleteItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM commitments WHERE item_id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s Store) SetCompleted(ctx context.Context, id string, completed bool, at *time.Time) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var atMs any
	if at != nil {
		atMs = at.UTC().UnixMilli()
	}
	_, err = db.ExecContext(ctx,
		`UPDATE items SET is_completed = ?, completed_at_unixms = ?, updated_at_unixms = ? WHERE id = ?`,
		boolToInt(completed), atMs, time.Now().UTC().UnixMilli(), id)
	return err
}

func (s Store) UpdateSortOrders(ctx context.Context, updates []order.Update) error {
	if len(updates) == 0 {
		return nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET sort_order = ?, updated_at_unixms = ? WHERE id = ?`,
			u.SortOrder, nowMs, u.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveChildSnapshot persists (or with nil clears) a parent's captured
// per-child completion states.
func (s Store) SaveChildSnapshot(ctx context.Context, parentID string, states []bool) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx,
		`UPDATE items SET prev_child_states = ?, updated_at_unixms = ? WHERE id = ?`,
		encodeStates(states), time.Now().UTC().UnixMilli(), parentID)
	return err
}

// RestoreChildStates writes completion states onto parentID's children in
// creation order, the ordering snapshots are captured in, in one transaction.
// Length mismatches are a silent no-op, mirroring the in-memory
// stale-snapshot rule.
func (s Store) RestoreChildStates(ctx context.Context, parentID string, states []bool) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	children, err := readItems(ctx, db,
		`SELECT `+itemColumns+` FROM items WHERE parent_id = ? ORDER BY created_at_unixms, id`, parentID)
	if err != nil {
		return err
	}
	if len(children) != len(states) {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	for i, ch := range children {
		var atMs any
		if states[i] {
			atMs = nowMs
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET is_completed = ?, completed_at_unixms = ?, updated_at_unixms = ? WHERE id = ?`,
			boolToInt(states[i]), atMs, nowMs, ch.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// FetchChildren reads the direct children of parentID, uncompleted partition
// first, each partition in sort order.
func (s Store) FetchChildren(ctx context.Context, parentID string) ([]model.Item, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return readItems(ctx, db,
		`SELECT `+itemColumns+` FROM items WHERE parent_id = ? ORDER BY is_completed, sort_order`, parentID)
}

func upsertItem(ctx context.Context, db *sql.DB, it model.Item) error {
	parent := ""
	if it.ParentID != nil {
		parent = strings.TrimSpace(*it.ParentID)
	}
	category := ""
	if it.CategoryID != nil {
		category = strings.TrimSpace(*it.CategoryID)
	}
	var completedAt any
	if it.CompletedAt != nil {
		completedAt = it.CompletedAt.UTC().UnixMilli()
	}
	_, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO items(`+itemColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, parent, string(it.Kind), it.Title, it.Notes,
		boolToInt(it.Priority), boolToInt(it.IsCompleted), completedAt,
		it.SortOrder, encodeStates(it.PrevChildStates), category,
		it.CreatedAt.UTC().UnixMilli(), it.UpdatedAt.UTC().UnixMilli())
	return err
}

func readItems(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		var it model.Item
		var parent, kind, category, states string
		var priority, completed int
		var completedAt sql.NullInt64
		var createdMs, updatedMs int64
		if err := rows.Scan(&it.ID, &parent, &kind, &it.Title, &it.Notes,
			&priority, &completed, &completedAt, &it.SortOrder, &states,
			&category, &createdMs, &updatedMs); err != nil {
			return nil, err
		}
		if parent != "" {
			p := parent
			it.ParentID = &p
		}
		it.Kind = model.Kind(kind)
		it.Priority = priority != 0
		it.IsCompleted = completed != 0
		if completedAt.Valid {
			at := time.UnixMilli(completedAt.Int64).UTC()
			it.CompletedAt = &at
		}
		it.PrevChildStates = decodeStates(states)
		if category != "" {
			c := category
			it.CategoryID = &c
		}
		it.CreatedAt = time.UnixMilli(createdMs).UTC()
		it.UpdatedAt = time.UnixMilli(updatedMs).UTC()
		out = append(out, it)
	}
	return out, rows.Err()
}

func encodeStates(states []bool) string {
	if states == nil {
		return ""
	}
	b, _ := json.Marshal(states)
	return string(b)
}

func decodeStates(s string) []bool {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []bool
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
