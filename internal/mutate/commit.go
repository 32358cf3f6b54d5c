package mutate

import (
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/store"
)

// Commit tags an item as committed for the given date. Committing an already
// committed item for the same date is a no-op.
func Commit(db *store.DB, itemID, date string, now time.Time) (Changes, error) {
	if _, ok := db.FindItem(itemID); !ok {
		return Changes{}, NotFoundError{Kind: "item", ID: itemID}
	}
	if date == "" {
		return Changes{}, ValidationError{Reason: "commitment date must not be empty"}
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Changes{}, ValidationError{Reason: "commitment date must be YYYY-MM-DD"}
	}
	for _, c := range db.Commitments {
		if c.ItemID == itemID && c.Date == date {
			return Changes{}, nil
		}
	}
	id, err := store.NewCommitmentID()
	if err != nil {
		return Changes{}, err
	}
	cm := model.Commitment{
		ID:        id,
		ItemID:    itemID,
		Date:      date,
		CreatedAt: now,
	}
	db.Commitments = append(db.Commitments, cm)
	return Changes{CreatedCommitments: []model.Commitment{cm}}, nil
}

// Uncommit removes every commitment for the item. Uncommitting an item with
// no commitments is a no-op.
func Uncommit(db *store.DB, itemID string) (Changes, error) {
	if _, ok := db.FindItem(itemID); !ok {
		return Changes{}, NotFoundError{Kind: "item", ID: itemID}
	}
	kept := db.Commitments[:0]
	removed := false
	for _, c := range db.Commitments {
		if c.ItemID == itemID {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	db.Commitments = kept
	if !removed {
		return Changes{}, nil
	}
	return Changes{DeletedCommitmentID: itemID}, nil
}
