// Package reconcile bridges the in-memory state and the store: operations
// apply to memory synchronously, then persist in the background. Views keep
// working off the optimistic state; a failed write is surfaced, never rolled
// back.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/mutate"
	"github.com/pelissiertools-cpu/focus/internal/notify"
	"github.com/pelissiertools-cpu/focus/internal/order"
)

// writeTimeout bounds a single background persistence pass.
const writeTimeout = 10 * time.Second

// ItemStore is the persistence surface the applier writes through.
// store.Store satisfies it.
type ItemStore interface {
	CreateItem(ctx context.Context, it model.Item) error
	UpdateItem(ctx context.Context, it model.Item) error
	DeleteItems(ctx context.Context, ids []string) error
	SetCompleted(ctx context.Context, id string, completed bool, at *time.Time) error
	UpdateSortOrders(ctx context.Context, updates []order.Update) error
	SaveChildSnapshot(ctx context.Context, parentID string, states []bool) error
	RestoreChildStates(ctx context.Context, parentID string, states []bool) error
	CreateCommitment(ctx context.Context, c model.Commitment) error
	DeleteCommitmentsForItem(ctx context.Context, itemID string) error
	AppendEvent(ctx context.Context, typ, entityID string, payload any) error
}

// Applier persists operation deltas and broadcasts completion changes.
type Applier struct {
	Store ItemStore
	// Bus receives one event per completion change; nil disables broadcast.
	Bus *notify.Bus
	// Origin tags broadcast events with the surface performing the change.
	Origin string

	wg sync.WaitGroup

	mu      sync.Mutex
	errs    []error
	pending int
}

// Apply broadcasts the delta's completion changes, then persists the delta in
// the background. op names the operation for the event log ("item.add",
// "item.toggle", ...). Persistence failures are collected, not returned: the
// in-memory state stays authoritative for the session either way.
func (a *Applier) Apply(op string, ch mutate.Changes) {
	if ch.Empty() {
		return
	}

	if a.Bus != nil {
		for _, c := range ch.Completions {
			a.Bus.Publish(notify.CompletionEvent{
				ItemID:      c.Item.ID,
				IsCompleted: c.Item.IsCompleted,
				CompletedAt: c.Item.CompletedAt,
				Origin:      a.Origin,
			})
		}
	}

	a.mu.Lock()
	a.pending++
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			a.mu.Lock()
			a.pending--
			a.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		a.persist(ctx, op, ch)
	}()
}

// Pending reports the number of background writes still in flight.
func (a *Applier) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Wait blocks until every background write has finished and returns the
// collected persistence errors, if any.
func (a *Applier) Wait() error {
	a.wg.Wait()
	a.mu.Lock()
	defer a.mu.Unlock()
	err := errors.Join(a.errs...)
	a.errs = nil
	return err
}

// Errs drains the persistence errors collected so far without waiting.
func (a *Applier) Errs() []error {
	a.mu.Lock()
	defer a.mu.Unlock()
	errs := a.errs
	a.errs = nil
	return errs
}

func (a *Applier) persist(ctx context.Context, op string, ch mutate.Changes) {
	// Rows first, orders after: a reader mid-write sees stale orders on real
	// rows rather than rows pointing at nothing.
	for _, it := range ch.Created {
		a.record(a.Store.CreateItem(ctx, it))
	}
	for _, it := range ch.Updated {
		a.record(a.Store.UpdateItem(ctx, it))
	}
	for _, c := range ch.Completions {
		// A snapshot restore writes the children as one batch below; only the
		// directly toggled item goes through SetCompleted then.
		if ch.RestoredStates != nil && !c.Direct {
			continue
		}
		a.record(a.Store.SetCompleted(ctx, c.Item.ID, c.Item.IsCompleted, c.Item.CompletedAt))
	}
	if ch.RestoredStates != nil {
		a.record(a.Store.RestoreChildStates(ctx, ch.RestoredStates.ParentID, ch.RestoredStates.States))
	}
	a.record(a.Store.UpdateSortOrders(ctx, ch.SortUpdates))
	if ch.Snapshot != nil {
		a.record(a.Store.SaveChildSnapshot(ctx, ch.Snapshot.ParentID, ch.Snapshot.States))
	} else if ch.SnapshotClearedID != "" {
		a.record(a.Store.SaveChildSnapshot(ctx, ch.SnapshotClearedID, nil))
	}
	a.record(a.Store.DeleteItems(ctx, ch.DeletedItemIDs))
	for _, c := range ch.CreatedCommitments {
		a.record(a.Store.CreateCommitment(ctx, c))
	}
	if ch.DeletedCommitmentID != "" {
		a.record(a.Store.DeleteCommitmentsForItem(ctx, ch.DeletedCommitmentID))
	}

	// The event log is best-effort on top of best-effort.
	a.record(a.Store.AppendEvent(ctx, op, entityID(ch), eventPayload(ch)))
}

func (a *Applier) record(err error) {
	if err == nil {
		return
	}
	a.mu.Lock()
	a.errs = append(a.errs, err)
	a.mu.Unlock()
}

func entityID(ch mutate.Changes) string {
	switch {
	case len(ch.Created) > 0:
		return ch.Created[0].ID
	case len(ch.DeletedItemIDs) > 0:
		return ch.DeletedItemIDs[0]
	case len(ch.Completions) > 0:
		for _, c := range ch.Completions {
			if c.Direct {
				return c.Item.ID
			}
		}
		return ch.Completions[0].Item.ID
	case len(ch.Updated) > 0:
		return ch.Updated[0].ID
	case len(ch.CreatedCommitments) > 0:
		return ch.CreatedCommitments[0].ItemID
	case ch.DeletedCommitmentID != "":
		return ch.DeletedCommitmentID
	case len(ch.SortUpdates) > 0:
		return ch.SortUpdates[0].ID
	default:
		return ""
	}
}

type payload struct {
	Items       []string `json:"items,omitempty"`
	Completions int      `json:"completions,omitempty"`
	Reordered   int      `json:"reordered,omitempty"`
}

func eventPayload(ch mutate.Changes) payload {
	var p payload
	for _, it := range ch.Created {
		p.Items = append(p.Items, it.ID)
	}
	for _, it := range ch.Updated {
		p.Items = append(p.Items, it.ID)
	}
	p.Items = append(p.Items, ch.DeletedItemIDs...)
	p.Completions = len(ch.Completions)
	p.Reordered = len(ch.SortUpdates)
	return p
}
