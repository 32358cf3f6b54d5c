package cascade

import (
	"testing"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
)

func fixtureFamily(t *testing.T, childStates ...bool) (*model.Item, []*model.Item) {
	t.Helper()
	base := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	parent := &model.Item{
		ID:        "item-parent",
		Kind:      model.KindProject,
		Title:     "parent",
		CreatedAt: base,
		UpdatedAt: base,
	}
	children := make([]*model.Item, 0, len(childStates))
	for i, done := range childStates {
		ch := &model.Item{
			ID:        "item-child-" + string(rune('a'+i)),
			ParentID:  &parent.ID,
			Kind:      model.KindTask,
			Title:     "child",
			SortOrder: i,
			CreatedAt: base.Add(time.Duration(i+1) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i+1) * time.Minute),
		}
		if done {
			at := base.Add(time.Hour)
			ch.IsCompleted = true
			ch.CompletedAt = &at
		}
		children = append(children, ch)
	}
	return parent, children
}

func toggleParent(parent *model.Item, children []*model.Item, now time.Time) Result {
	return Toggle(Relatives{Item: parent, Children: children}, now)
}

func toggleChildAt(parent *model.Item, children []*model.Item, i int, now time.Time) Result {
	return Toggle(Relatives{Item: children[i], Parent: parent, Siblings: children}, now)
}

func TestDirectParentCompletion_CompletesAllChildrenAndSnapshots(t *testing.T) {
	parent, children := fixtureFamily(t, false, true, false)
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	res := toggleParent(parent, children, now)

	if !parent.IsCompleted || parent.CompletedAt == nil {
		t.Fatalf("parent not completed: %+v", parent)
	}
	for _, ch := range children {
		if !ch.IsCompleted || ch.CompletedAt == nil {
			t.Fatalf("child %s not completed", ch.ID)
		}
	}
	if res.SnapshotCaptured == nil {
		t.Fatal("expected snapshot capture on direct parent completion")
	}
	want := []bool{false, true, false}
	if len(res.SnapshotCaptured.States) != len(want) {
		t.Fatalf("snapshot length %d, want %d", len(res.SnapshotCaptured.States), len(want))
	}
	for i, s := range want {
		if res.SnapshotCaptured.States[i] != s {
			t.Fatalf("snapshot[%d]=%v, want %v", i, res.SnapshotCaptured.States[i], s)
		}
	}
	// Already-complete child keeps its original timestamp.
	if !children[1].CompletedAt.Equal(time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("pre-completed child timestamp rewritten: %v", children[1].CompletedAt)
	}
}

func TestDirectParentUncompletion_RestoresSnapshot(t *testing.T) {
	parent, children := fixtureFamily(t, false, true, false)
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	toggleParent(parent, children, now)
	res := toggleParent(parent, children, now.Add(time.Minute))

	if parent.IsCompleted || parent.CompletedAt != nil {
		t.Fatalf("parent still completed: %+v", parent)
	}
	want := []bool{false, true, false}
	for i, ch := range children {
		if ch.IsCompleted != want[i] {
			t.Fatalf("child %d restored to %v, want %v", i, ch.IsCompleted, want[i])
		}
		if ch.IsCompleted != (ch.CompletedAt != nil) {
			t.Fatalf("child %d violates completedAt invariant", i)
		}
	}
	if res.SnapshotClearedID != parent.ID {
		t.Fatalf("expected snapshot cleared for %s, got %q", parent.ID, res.SnapshotClearedID)
	}
	if parent.PrevChildStates != nil {
		t.Fatal("snapshot survived the restore")
	}
}

func TestParentCycle_ChildOrderShuffleKeepsStatesAligned(t *testing.T) {
	parent, children := fixtureFamily(t, false, false, true)
	a, b, c := children[0], children[1], children[2]
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	// Display order interleaves the partitions; the snapshot must index on
	// creation order, not on whatever order the caller walks the children in.
	res := toggleParent(parent, []*model.Item{a, c, b}, now)
	want := []bool{false, false, true}
	for i, s := range want {
		if res.SnapshotCaptured.States[i] != s {
			t.Fatalf("snapshot = %v, want %v", res.SnapshotCaptured.States, want)
		}
	}

	// After completion the done partition renumbers with c ahead of the
	// freshly flipped a and b; the restore sees that order.
	res = toggleParent(parent, []*model.Item{c, a, b}, now.Add(time.Minute))
	if a.IsCompleted || b.IsCompleted {
		t.Fatalf("restore flipped the wrong children: a=%v b=%v", a.IsCompleted, b.IsCompleted)
	}
	if !c.IsCompleted {
		t.Fatal("restore reopened the child that was already complete at capture")
	}
	for i, s := range want {
		if res.RestoredStates[i] != s {
			t.Fatalf("restored states = %v, want %v", res.RestoredStates, want)
		}
	}
}

func TestDirectParentUncompletion_StaleSnapshotLeavesChildrenAsIs(t *testing.T) {
	parent, children := fixtureFamily(t, false, false)
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	toggleParent(parent, children, now)

	// A third child appears after the snapshot was taken.
	extraParent := parent.ID
	at := now
	extra := &model.Item{
		ID: "item-child-x", ParentID: &extraParent, Kind: model.KindTask,
		Title: "late", SortOrder: 2, IsCompleted: true, CompletedAt: &at,
		CreatedAt: now, UpdatedAt: now,
	}
	children = append(children, extra)

	toggleParent(parent, children, now.Add(time.Minute))

	for _, ch := range children {
		if !ch.IsCompleted {
			t.Fatalf("stale snapshot should leave children as-is; %s flipped", ch.ID)
		}
	}
	if parent.PrevChildStates != nil {
		t.Fatal("stale snapshot not discarded")
	}
}

func TestLastChildCompletion_AutoCompletesParentWithoutSnapshot(t *testing.T) {
	parent, children := fixtureFamily(t, true, true, false)
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	res := toggleChildAt(parent, children, 2, now)

	if !parent.IsCompleted {
		t.Fatal("parent should auto-complete when last child completes")
	}
	if res.SnapshotCaptured != nil {
		t.Fatal("auto-completion must not capture a snapshot")
	}
	if parent.PrevChildStates != nil {
		t.Fatal("auto-completion wrote PrevChildStates")
	}
}

func TestChildUncompletion_AutoUncompletesParentWithoutTouchingSiblings(t *testing.T) {
	// All children complete, parent completed via the auto path.
	parent, children := fixtureFamily(t, true, true, false)
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	toggleChildAt(parent, children, 2, now)
	if !parent.IsCompleted {
		t.Fatal("setup: parent should be auto-completed")
	}

	toggleChildAt(parent, children, 1, now.Add(time.Minute))

	if parent.IsCompleted {
		t.Fatal("parent should auto-uncomplete when a child reopens")
	}
	if !children[0].IsCompleted || !children[2].IsCompleted {
		t.Fatal("auto-uncomplete must not touch the other children")
	}
	if children[1].IsCompleted {
		t.Fatal("toggled child should be incomplete")
	}
}

func TestLeafToggle_Idempotent(t *testing.T) {
	base := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	leaf := &model.Item{ID: "item-leaf", Kind: model.KindTask, Title: "leaf", CreatedAt: base, UpdatedAt: base}
	now := base.Add(time.Hour)

	Toggle(Relatives{Item: leaf}, now)
	if !leaf.IsCompleted || leaf.CompletedAt == nil {
		t.Fatalf("first toggle should complete: %+v", leaf)
	}
	Toggle(Relatives{Item: leaf}, now.Add(time.Minute))
	if leaf.IsCompleted || leaf.CompletedAt != nil {
		t.Fatalf("second toggle should return to incomplete with nil completedAt: %+v", leaf)
	}
}

// The worked sequence: complete A, B, C in turn, then directly un-complete
// the auto-completed parent. No snapshot was ever captured, so the children
// stay complete.
func TestAutoCompleteThenDirectUncomplete_ChildrenStayComplete(t *testing.T) {
	parent, children := fixtureFamily(t, false, false, false)
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	for i := range children {
		toggleChildAt(parent, children, i, now.Add(time.Duration(i)*time.Minute))
	}
	if !parent.IsCompleted {
		t.Fatal("parent should be auto-completed after last child")
	}
	if parent.PrevChildStates != nil {
		t.Fatal("auto path captured a snapshot")
	}

	res := toggleParent(parent, children, now.Add(time.Hour))

	if parent.IsCompleted {
		t.Fatal("direct toggle should un-complete the parent")
	}
	for _, ch := range children {
		if !ch.IsCompleted {
			t.Fatalf("child %s should remain complete (no snapshot to restore)", ch.ID)
		}
	}
	if len(res.Changes) != 1 {
		t.Fatalf("only the parent should change, got %d changes", len(res.Changes))
	}
}
