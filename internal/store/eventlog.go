package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
)

// AppendEvent appends to the operation log. Best-effort: callers typically
// discard the error, the log is forensics, not state.
func (s Store) AppendEvent(ctx context.Context, typ, entityID string, payload any) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := newRandomID("evt")
	if err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO events(id, ts_unixms, type, entity_id, payload) VALUES(?, ?, ?, ?, ?)`,
		id, time.Now().UTC().UnixMilli(), typ, entityID, string(raw))
	return err
}

// ReadEvents returns events in chronological order. entityID narrows to one
// item when non-empty; limit <= 0 returns everything.
func (s Store) ReadEvents(ctx context.Context, entityID string, limit int) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `SELECT id, ts_unixms, type, entity_id, payload FROM events`
	var args []any
	if strings.TrimSpace(entityID) != "" {
		query += ` WHERE entity_id = ?`
		args = append(args, strings.TrimSpace(entityID))
	}
	query += ` ORDER BY ts_unixms`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var ev model.Event
		var tsMs int64
		var payload string
		if err := rows.Scan(&ev.ID, &tsMs, &ev.Type, &ev.EntityID, &payload); err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(tsMs).UTC()
		if strings.TrimSpace(payload) != "" {
			var v any
			if err := json.Unmarshal([]byte(payload), &v); err == nil {
				ev.Payload = v
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
