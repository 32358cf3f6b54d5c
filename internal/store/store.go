package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/order"
)

// Store is a workspace directory holding the SQLite state file.
type Store struct {
	Dir string
}

// DB is the in-memory state a screen operates on. It is owned exclusively by
// whoever loaded it; cross-screen consistency goes through the notify bus,
// not through shared DB instances.
type DB struct {
	Items       []model.Item
	Categories  []model.Category
	Commitments []model.Commitment
}

// DiscoverDir walks up from start looking for a .focus directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".focus")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, ".focus"), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

// Load reads the full workspace state into memory.
func (s Store) Load(ctx context.Context) (*DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	out := &DB{}
	items, err := readItems(ctx, db, `SELECT `+itemColumns+` FROM items ORDER BY parent_id, is_completed, sort_order`)
	if err != nil {
		return nil, err
	}
	out.Items = items

	cats, err := readCategories(ctx, db)
	if err != nil {
		return nil, err
	}
	out.Categories = cats

	coms, err := readCommitments(ctx, db)
	if err != nil {
		return nil, err
	}
	out.Commitments = coms

	return out, nil
}

func (db *DB) FindItem(id string) (*model.Item, bool) {
	for i := range db.Items {
		if db.Items[i].ID == id {
			return &db.Items[i], true
		}
	}
	return nil, false
}

func (db *DB) FindCategory(id string) (*model.Category, bool) {
	for i := range db.Categories {
		if db.Categories[i].ID == id {
			return &db.Categories[i], true
		}
	}
	return nil, false
}

// ChildrenOf returns pointers to the direct children of parentID, unsorted.
// The index is recomputed per call; the arena is small and callers mutate
// items between calls, so a cached index would be permanently stale.
func (db *DB) ChildrenOf(parentID string) []*model.Item {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return nil
	}
	var out []*model.Item
	for i := range db.Items {
		it := &db.Items[i]
		if it.ParentID != nil && *it.ParentID == parentID {
			out = append(out, it)
		}
	}
	return out
}

// TopLevel returns pointers to all items without a parent.
func (db *DB) TopLevel() []*model.Item {
	var out []*model.Item
	for i := range db.Items {
		if db.Items[i].ParentID == nil {
			out = append(out, &db.Items[i])
		}
	}
	return out
}

// SiblingScope returns the items sharing a parent ("" for top-level) and a
// completion partition, the unit within which sort orders are contiguous.
func (db *DB) SiblingScope(parentID string, completed bool) []*model.Item {
	var out []*model.Item
	for i := range db.Items {
		it := &db.Items[i]
		if it.IsCompleted != completed {
			continue
		}
		switch {
		case parentID == "" && it.ParentID == nil:
			out = append(out, it)
		case parentID != "" && it.ParentID != nil && *it.ParentID == parentID:
			out = append(out, it)
		}
	}
	order.SortSiblings(out)
	return out
}

// CommittedSet returns the ids of items with at least one commitment.
func (db *DB) CommittedSet() map[string]bool {
	out := make(map[string]bool, len(db.Commitments))
	for _, c := range db.Commitments {
		out[c.ItemID] = true
	}
	return out
}

// Descendants returns itemID plus every transitive child id.
func (db *DB) Descendants(itemID string) []string {
	out := []string{itemID}
	for i := 0; i < len(out); i++ {
		for _, ch := range db.ChildrenOf(out[i]) {
			out = append(out, ch.ID)
		}
	}
	return out
}
