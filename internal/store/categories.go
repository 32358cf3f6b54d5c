package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
)

func (s Store) CreateCategory(ctx context.Context, c model.Category) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO categories(id, name, created_at_unixms) VALUES(?, ?, ?)`,
		c.ID, c.Name, c.CreatedAt.UTC().UnixMilli())
	return err
}

func (s Store) RenameCategory(ctx context.Context, id, name string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	return err
}

// DeleteCategory removes a category and either clears or reassigns the
// category of items labeled with it, in one transaction.
func (s Store) DeleteCategory(ctx context.Context, id, reassignTo string) error {
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
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET category_id = ?, updated_at_unixms = ? WHERE category_id = ?`,
		reassignTo, nowMs, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s Store) CreateCommitment(ctx context.Context, c model.Commitment) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO commitments(id, item_id, date, created_at_unixms) VALUES(?, ?, ?, ?)`,
		c.ID, c.ItemID, c.Date, c.CreatedAt.UTC().UnixMilli())
	return err
}

func (s Store) DeleteCommitmentsForItem(ctx context.Context, itemID string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM commitments WHERE item_id = ?`, itemID)
	return err
}

func readCategories(ctx context.Context, db *sql.DB) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, created_at_unixms FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		var createdMs int64
		if err := rows.Scan(&c.ID, &c.Name, &createdMs); err != nil {
			return nil, err
		}
		c.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func readCommitments(ctx context.Context, db *sql.DB) ([]model.Commitment, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, item_id, date, created_at_unixms FROM commitments ORDER BY created_at_unixms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Commitment
	for rows.Next() {
		var c model.Commitment
		var createdMs int64
		if err := rows.Scan(&c.ID, &c.ItemID, &c.Date, &createdMs); err != nil {
			return nil, err
		}
		c.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
