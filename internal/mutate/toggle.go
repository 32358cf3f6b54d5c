package mutate

import (
	"time"

	"github.com/pelissiertools-cpu/focus/internal/cascade"
	"github.com/pelissiertools-cpu/focus/internal/order"
	"github.com/pelissiertools-cpu/focus/internal/store"
)

// Items that flip partitions are parked past any real sort order, in flip
// order, so the renumber appends them at the end of their new partition.
const resortSentinel = 1 << 20

// Toggle flips an item's completion through the cascade rules, then restores
// the sort-order invariant in every sibling scope the cascade touched.
func Toggle(db *store.DB, id string, now time.Time) (Changes, error) {
	it, ok := db.FindItem(id)
	if !ok {
		return Changes{}, NotFoundError{Kind: "item", ID: id}
	}

	rel := cascade.Relatives{Item: it}
	if it.ParentID != nil {
		if parent, ok := db.FindItem(*it.ParentID); ok {
			rel.Parent = parent
		}
		sibs := db.ChildrenOf(*it.ParentID)
		order.SortSiblings(sibs)
		rel.Siblings = sibs
	}
	children := db.ChildrenOf(it.ID)
	order.SortSiblings(children)
	rel.Children = children

	res := cascade.Toggle(rel, now)

	var ch Changes
	ch.Snapshot = res.SnapshotCaptured
	ch.SnapshotClearedID = res.SnapshotClearedID
	if res.RestoredStates != nil {
		ch.RestoredStates = &cascade.Snapshot{ParentID: it.ID, States: res.RestoredStates}
	}

	// Every change is a partition flip: park the flipped items at the end of
	// their destination partitions, then renumber each affected scope.
	scopes := map[string]bool{}
	for i, c := range res.Changes {
		c.Item.SortOrder = resortSentinel + i
		scopes[scopeKey(c.Item.ParentID)] = true
		ch.Completions = append(ch.Completions, CompletionChange{Item: *c.Item, Direct: c.Direct})
	}
	for key := range scopes {
		for _, completed := range []bool{false, true} {
			scope := db.SiblingScope(key, completed)
			updates := order.Renumber(scope)
			order.Apply(scope, updates)
			ch.SortUpdates = append(ch.SortUpdates, updates...)
		}
	}

	// Re-read the post-renumber rows for persistence.
	for i := range ch.Completions {
		if cur, ok := db.FindItem(ch.Completions[i].Item.ID); ok {
			ch.Completions[i].Item = *cur
		}
	}
	return ch, nil
}
