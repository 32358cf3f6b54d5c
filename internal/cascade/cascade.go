// Package cascade resolves completion-state changes between parents and
// children.
//
// A completion toggle never stops at the toggled item: completing a parent
// completes its children, completing the last incomplete child completes the
// parent, and un-completing takes different paths depending on whether the
// user toggled the parent directly or the parent follows its children. The
// rules are applied in a fixed precedence order and the direct/auto
// asymmetry (direct un-complete restores children from a snapshot, auto
// un-complete leaves them alone) is load-bearing.
package cascade

import (
	"sort"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
)

// Relatives is the neighborhood of the toggled item: its parent (nil for
// top-level items) and its direct children in child sort order.
type Relatives struct {
	Item     *model.Item
	Parent   *model.Item
	Children []*model.Item
	// Siblings are the parent's direct children including Item, in child sort
	// order. Only consulted when Item is a child (rule 3).
	Siblings []*model.Item
}

// Change records one item's completion transition, post-state.
type Change struct {
	Item *model.Item
	// Direct is true for the user-toggled item, false for cascaded changes.
	Direct bool
}

// Snapshot is a captured per-child completion state, indexed by creation
// order (CreatedAt, then ID). Sort orders get reassigned when children change
// partitions, so they cannot key the states across a complete/un-complete
// cycle; creation order can.
type Snapshot struct {
	ParentID string
	States   []bool
}

// snapshotOrder returns a copy of children sorted by CreatedAt then ID, the
// ordering Snapshot states index into.
func snapshotOrder(children []*model.Item) []*model.Item {
	out := append([]*model.Item{}, children...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Result lists everything a toggle changed, in application order.
type Result struct {
	Changes []Change
	// SnapshotCaptured is set when a direct parent completion recorded the
	// children's prior states.
	SnapshotCaptured *Snapshot
	// SnapshotClearedID is set when a parent's snapshot was consumed by a
	// restore or discarded as stale.
	SnapshotClearedID string
	// RestoredStates is the per-child state vector applied by a snapshot
	// restore, nil when no restore happened. Stores persist it as one batch
	// write rather than per-child updates.
	RestoredStates []bool
}

// Toggle flips the completion state of rel.Item and applies the cascade
// rules, mutating the affected items in place. All mutation happens before
// Toggle returns; persistence of the result is the caller's concern.
func Toggle(rel Relatives, now time.Time) Result {
	switch {
	case len(rel.Children) > 0:
		if rel.Item.IsCompleted {
			return uncompleteParent(rel, now)
		}
		return completeParent(rel, now)
	case rel.Parent != nil:
		return toggleChild(rel, now)
	default:
		var res Result
		flip(rel.Item, !rel.Item.IsCompleted, now)
		res.Changes = append(res.Changes, Change{Item: rel.Item, Direct: true})
		return res
	}
}

// completeParent applies rule 1: snapshot the children's current states, then
// complete the parent and every child.
func completeParent(rel Relatives, now time.Time) Result {
	var res Result

	states := make([]bool, 0, len(rel.Children))
	for _, ch := range snapshotOrder(rel.Children) {
		states = append(states, ch.IsCompleted)
	}
	rel.Item.PrevChildStates = states
	res.SnapshotCaptured = &Snapshot{ParentID: rel.Item.ID, States: states}

	flip(rel.Item, true, now)
	res.Changes = append(res.Changes, Change{Item: rel.Item, Direct: true})

	for _, ch := range rel.Children {
		if ch.IsCompleted {
			continue
		}
		flip(ch, true, now)
		res.Changes = append(res.Changes, Change{Item: ch})
	}
	return res
}

// uncompleteParent applies rule 2: un-complete the parent; if a usable
// snapshot exists, restore each child to it. A stale snapshot (child count
// changed since capture) is discarded and the children keep their state.
func uncompleteParent(rel Relatives, now time.Time) Result {
	var res Result

	flip(rel.Item, false, now)
	res.Changes = append(res.Changes, Change{Item: rel.Item, Direct: true})

	snap := rel.Item.PrevChildStates
	if snap != nil {
		if len(snap) == len(rel.Children) {
			res.RestoredStates = snap
			for i, ch := range snapshotOrder(rel.Children) {
				if ch.IsCompleted == snap[i] {
					continue
				}
				flip(ch, snap[i], now)
				res.Changes = append(res.Changes, Change{Item: ch})
			}
		}
		// Consumed or stale either way; a snapshot never survives the
		// un-completion it was captured for.
		rel.Item.PrevChildStates = nil
		res.SnapshotClearedID = rel.Item.ID
	}
	return res
}

// toggleChild applies rule 3: flip the child, then follow the parent. All
// children complete auto-completes the parent (no snapshot: there is nothing
// to restore). Any child incomplete auto-uncompletes a completed parent
// without touching the other children.
func toggleChild(rel Relatives, now time.Time) Result {
	var res Result

	flip(rel.Item, !rel.Item.IsCompleted, now)
	res.Changes = append(res.Changes, Change{Item: rel.Item, Direct: true})

	allDone := len(rel.Siblings) > 0
	for _, sib := range rel.Siblings {
		if !sib.IsCompleted {
			allDone = false
			break
		}
	}

	switch {
	case allDone && !rel.Parent.IsCompleted:
		flip(rel.Parent, true, now)
		res.Changes = append(res.Changes, Change{Item: rel.Parent})
	case !allDone && rel.Parent.IsCompleted:
		flip(rel.Parent, false, now)
		res.Changes = append(res.Changes, Change{Item: rel.Parent})
	}
	return res
}

// flip sets the completion state, keeping the CompletedAt invariant: non-nil
// iff completed, stamped at the moment of the false->true transition.
func flip(it *model.Item, completed bool, now time.Time) {
	it.IsCompleted = completed
	if completed {
		at := now
		it.CompletedAt = &at
	} else {
		it.CompletedAt = nil
	}
	it.UpdatedAt = now
}
