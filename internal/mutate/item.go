package mutate

import (
	"strings"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/order"
	"github.com/pelissiertools-cpu/focus/internal/store"
)

type CreateInput struct {
	Title      string
	ParentID   string
	Kind       model.Kind
	Notes      string
	Priority   bool
	CategoryID string
}

// Create inserts a new item at the front of its sibling scope, pushing the
// existing siblings back. Children are always plain tasks regardless of the
// requested kind.
func Create(db *store.DB, in CreateInput, now time.Time) (model.Item, Changes, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Item{}, Changes{}, errEmptyTitle()
	}

	kind := in.Kind
	if kind == "" {
		kind = model.KindTask
	}
	if !kind.IsValid() {
		return model.Item{}, Changes{}, ValidationError{Reason: "invalid kind: " + string(kind)}
	}

	var parentID *string
	var ch Changes
	if pid := strings.TrimSpace(in.ParentID); pid != "" {
		parent, ok := db.FindItem(pid)
		if !ok {
			return model.Item{}, Changes{}, NotFoundError{Kind: "item", ID: pid}
		}
		if parent.ParentID != nil {
			return model.Item{}, Changes{}, ValidationError{Reason: "cannot nest under a child item"}
		}
		parentID = &parent.ID
		kind = model.KindTask
		clearStaleSnapshot(parent, &ch)
	}

	var categoryID *string
	if cid := strings.TrimSpace(in.CategoryID); cid != "" {
		if _, ok := db.FindCategory(cid); !ok {
			return model.Item{}, Changes{}, NotFoundError{Kind: "category", ID: cid}
		}
		categoryID = &cid
	}

	id, err := db.NewItemID()
	if err != nil {
		return model.Item{}, Changes{}, err
	}
	it := model.Item{
		ID:         id,
		ParentID:   parentID,
		Kind:       kind,
		Title:      title,
		Notes:      strings.TrimSpace(in.Notes),
		Priority:   in.Priority,
		SortOrder:  -1, // sorts to the front; the renumber below assigns 0
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	db.Items = append(db.Items, it)

	scope := db.SiblingScope(scopeKey(parentID), false)
	updates := order.Renumber(scope)
	order.Apply(scope, updates)

	created, _ := db.FindItem(id)
	ch.Created = append(ch.Created, *created)
	// The new item's final order is persisted with its row, not as a
	// sort-order delta.
	ch.SortUpdates = dropID(updates, id)
	return *created, ch, nil
}

type EditInput struct {
	Title    *string
	Notes    *string
	Priority *bool
}

func Edit(db *store.DB, id string, in EditInput, now time.Time) (Changes, error) {
	it, ok := db.FindItem(id)
	if !ok {
		return Changes{}, NotFoundError{Kind: "item", ID: id}
	}

	changed := false
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Changes{}, errEmptyTitle()
		}
		if title != it.Title {
			it.Title = title
			changed = true
		}
	}
	if in.Notes != nil && strings.TrimSpace(*in.Notes) != it.Notes {
		it.Notes = strings.TrimSpace(*in.Notes)
		changed = true
	}
	if in.Priority != nil && *in.Priority != it.Priority {
		it.Priority = *in.Priority
		changed = true
	}
	if !changed {
		return Changes{}, nil
	}
	it.UpdatedAt = now

	var ch Changes
	ch.Updated = append(ch.Updated, *it)
	return ch, nil
}

// SetCategory moves an item to a category; empty categoryID clears it.
func SetCategory(db *store.DB, id, categoryID string, now time.Time) (Changes, error) {
	it, ok := db.FindItem(id)
	if !ok {
		return Changes{}, NotFoundError{Kind: "item", ID: id}
	}

	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		if it.CategoryID == nil {
			return Changes{}, nil
		}
		it.CategoryID = nil
	} else {
		if _, ok := db.FindCategory(categoryID); !ok {
			return Changes{}, NotFoundError{Kind: "category", ID: categoryID}
		}
		if it.CategoryID != nil && *it.CategoryID == categoryID {
			return Changes{}, nil
		}
		it.CategoryID = &categoryID
	}
	it.UpdatedAt = now

	var ch Changes
	ch.Updated = append(ch.Updated, *it)
	return ch, nil
}

// Delete removes an item with all its descendants and their commitments, and
// closes the gap in the sibling scope it leaves behind.
func Delete(db *store.DB, id string) (Changes, error) {
	it, ok := db.FindItem(id)
	if !ok {
		return Changes{}, NotFoundError{Kind: "item", ID: id}
	}
	parentID := it.ParentID

	var ch Changes
	if parentID != nil {
		if parent, ok := db.FindItem(*parentID); ok {
			clearStaleSnapshot(parent, &ch)
		}
	}

	doomed := db.Descendants(id)
	doomedSet := make(map[string]bool, len(doomed))
	for _, did := range doomed {
		doomedSet[did] = true
	}

	kept := db.Items[:0]
	for _, x := range db.Items {
		if !doomedSet[x.ID] {
			kept = append(kept, x)
		}
	}
	db.Items = kept

	keptComs := db.Commitments[:0]
	for _, c := range db.Commitments {
		if !doomedSet[c.ItemID] {
			keptComs = append(keptComs, c)
		}
	}
	db.Commitments = keptComs

	ch.DeletedItemIDs = doomed
	for _, completed := range []bool{false, true} {
		scope := db.SiblingScope(scopeKey(parentID), completed)
		updates := order.Renumber(scope)
		order.Apply(scope, updates)
		ch.SortUpdates = append(ch.SortUpdates, updates...)
	}
	return ch, nil
}

// Reorder moves droppedID to targetID's position within the uncompleted
// partition of a sibling scope. parentID is empty for the top-level scope.
func Reorder(db *store.DB, parentID, droppedID, targetID string) (Changes, error) {
	scope := db.SiblingScope(strings.TrimSpace(parentID), false)
	updates := order.PlanReorder(scope, droppedID, targetID)
	if len(updates) == 0 {
		return Changes{}, nil
	}
	order.Apply(scope, updates)

	var ch Changes
	ch.SortUpdates = updates
	return ch, nil
}

// clearStaleSnapshot invalidates a parent's captured child states when the
// child set changes after capture.
func clearStaleSnapshot(parent *model.Item, ch *Changes) {
	if parent.PrevChildStates == nil {
		return
	}
	parent.PrevChildStates = nil
	ch.SnapshotClearedID = parent.ID
}

func scopeKey(parentID *string) string {
	if parentID == nil {
		return ""
	}
	return *parentID
}

func dropID(updates []order.Update, id string) []order.Update {
	out := updates[:0]
	for _, u := range updates {
		if u.ID != id {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
