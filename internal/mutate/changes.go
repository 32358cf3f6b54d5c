// Package mutate implements the in-memory operations on a loaded workspace
// state. Every operation validates first, then mutates the state
// synchronously, and returns a Changes record describing exactly what has to
// be persisted. Nothing in this package touches the store.
package mutate

import (
	"github.com/pelissiertools-cpu/focus/internal/cascade"
	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/order"
)

// CompletionChange is one item's completion transition, for persistence and
// for the cross-view broadcast.
type CompletionChange struct {
	Item   model.Item
	Direct bool
}

// Changes is the persistence delta of one operation. Fields are only set by
// the operations that produce them.
type Changes struct {
	Created []model.Item
	Updated []model.Item

	Completions []CompletionChange
	SortUpdates []order.Update

	DeletedItemIDs []string

	// Snapshot captured on a direct parent completion; SnapshotClearedID names
	// a parent whose snapshot was consumed or invalidated.
	Snapshot          *cascade.Snapshot
	SnapshotClearedID string
	// RestoredStates is set when a direct parent un-completion applied a
	// snapshot; the children persist as one batch restore instead of
	// per-child completion writes.
	RestoredStates *cascade.Snapshot

	CreatedCommitments  []model.Commitment
	DeletedCommitmentID string
}

// Empty reports whether the operation turned out to be a no-op.
func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 &&
		len(c.Completions) == 0 && len(c.SortUpdates) == 0 &&
		len(c.DeletedItemIDs) == 0 && c.Snapshot == nil &&
		c.SnapshotClearedID == "" && c.RestoredStates == nil &&
		len(c.CreatedCommitments) == 0 && c.DeletedCommitmentID == ""
}
