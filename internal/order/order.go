// Package order plans sort-order updates for sibling item sets.
//
// A sibling scope is the set of items sharing a parent and a completion
// partition. Within a scope, SortOrder values are contiguous (0..n-1).
// Planning functions never mutate their inputs; they return the minimal set
// of updates needed, which the caller applies in memory and persists.
package order

import (
	"errors"
	"sort"
	"strings"

	"github.com/pelissiertools-cpu/focus/internal/model"
)

// Update is a single (id, newSortOrder) assignment.
type Update struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sortOrder"`
}

// SortSiblings sorts items in place by SortOrder, then CreatedAt, then ID.
// The extra tie-breaks keep the ordering deterministic even when sort orders
// are transiently duplicated (e.g. mid-cascade, before a renumber).
func SortSiblings(items []*model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareSiblings(items[i], items[j]) < 0
	})
}

func compareSiblings(a, b *model.Item) int {
	if a.SortOrder != b.SortOrder {
		if a.SortOrder < b.SortOrder {
			return -1
		}
		return 1
	}
	if a.CreatedAt.Before(b.CreatedAt) {
		return -1
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return 1
	}
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}

// PlanReorder plans the updates for moving droppedID to targetID's position
// within a sibling scope, with list-splice semantics: the dropped item is
// removed and reinserted at the index the target occupied before removal.
//
// A move that does not change the sequence returns an empty update set.
// Unknown ids and droppedID == targetID are no-ops, not errors.
func PlanReorder(sibs []*model.Item, droppedID, targetID string) []Update {
	droppedID = strings.TrimSpace(droppedID)
	targetID = strings.TrimSpace(targetID)
	if droppedID == "" || targetID == "" || droppedID == targetID {
		return nil
	}

	// Work on a sorted copy so callers don't get their slice reordered.
	cur := append([]*model.Item{}, sibs...)
	SortSiblings(cur)

	fromIdx := indexOf(cur, droppedID)
	toIdx := indexOf(cur, targetID)
	if fromIdx < 0 || toIdx < 0 || fromIdx == toIdx {
		return nil
	}

	final := splice(cur, fromIdx, toIdx)
	return diffOrders(final)
}

// Renumber plans the updates needed to make a scope's sort orders contiguous
// again (0..n-1 in current sequence order). Used after items enter or leave a
// partition.
func Renumber(sibs []*model.Item) []Update {
	cur := append([]*model.Item{}, sibs...)
	SortSiblings(cur)
	return diffOrders(cur)
}

// Apply writes planned updates back onto the items. Items not covered by an
// update are left untouched.
func Apply(sibs []*model.Item, updates []Update) {
	if len(updates) == 0 {
		return
	}
	byID := make(map[string]int, len(updates))
	for _, u := range updates {
		byID[u.ID] = u.SortOrder
	}
	for _, it := range sibs {
		if so, ok := byID[it.ID]; ok {
			it.SortOrder = so
		}
	}
}

// CheckContiguous reports whether the scope's sort orders are exactly
// {0..n-1} with no gaps or duplicates.
func CheckContiguous(sibs []*model.Item) error {
	seen := make(map[int]bool, len(sibs))
	for _, it := range sibs {
		if it.SortOrder < 0 || it.SortOrder >= len(sibs) {
			return errors.New("sort order out of range")
		}
		if seen[it.SortOrder] {
			return errors.New("duplicate sort order")
		}
		seen[it.SortOrder] = true
	}
	return nil
}

func indexOf(items []*model.Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// splice removes the element at from and reinserts it at the position the
// element at to occupied before removal.
func splice(items []*model.Item, from, to int) []*model.Item {
	moved := items[from]
	rest := make([]*model.Item, 0, len(items)-1)
	rest = append(rest, items[:from]...)
	rest = append(rest, items[from+1:]...)

	insertAt := to
	if insertAt > len(rest) {
		insertAt = len(rest)
	}

	final := make([]*model.Item, 0, len(items))
	final = append(final, rest[:insertAt]...)
	final = append(final, moved)
	final = append(final, rest[insertAt:]...)
	return final
}

// diffOrders returns sort-order assignments for items whose index in the
// final sequence differs from their current SortOrder.
func diffOrders(final []*model.Item) []Update {
	var out []Update
	for i, it := range final {
		if it.SortOrder != i {
			out = append(out, Update{ID: it.ID, SortOrder: i})
		}
	}
	return out
}
