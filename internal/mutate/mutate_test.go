package mutate

import (
	"errors"
	"testing"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/order"
	"github.com/pelissiertools-cpu/focus/internal/store"
)

var testNow = time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)

func testItem(id string, parentID *string, sortOrder int, completed bool) model.Item {
	it := model.Item{
		ID:        id,
		ParentID:  parentID,
		Kind:      model.KindTask,
		Title:     "item " + id,
		SortOrder: sortOrder,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
	if completed {
		it.IsCompleted = true
		at := testNow.Add(-30 * time.Minute)
		it.CompletedAt = &at
	}
	return it
}

// fixtureDB builds a project "proj" with children a, b (open) and c
// (completed), plus a top-level sibling "solo".
func fixtureDB() *store.DB {
	pid := "proj"
	db := &store.DB{}
	proj := testItem(pid, nil, 0, false)
	proj.Kind = model.KindProject
	db.Items = append(db.Items,
		proj,
		testItem("solo", nil, 1, false),
		testItem("a", &pid, 0, false),
		testItem("b", &pid, 1, false),
		testItem("c", &pid, 0, true),
	)
	return db
}

func mustFind(t *testing.T, db *store.DB, id string) *model.Item {
	t.Helper()
	it, ok := db.FindItem(id)
	if !ok {
		t.Fatalf("item %s not found", id)
	}
	return it
}

func assertScopeOrders(t *testing.T, db *store.DB, parentID string, completed bool, want []string) {
	t.Helper()
	scope := db.SiblingScope(parentID, completed)
	if len(scope) != len(want) {
		t.Fatalf("scope(%q, completed=%v): got %d items, want %d", parentID, completed, len(scope), len(want))
	}
	for i, it := range scope {
		if it.ID != want[i] {
			t.Fatalf("scope(%q, completed=%v)[%d] = %s, want %s", parentID, completed, i, it.ID, want[i])
		}
		if it.SortOrder != i {
			t.Fatalf("scope(%q, completed=%v): %s has sortOrder %d, want %d", parentID, completed, it.ID, it.SortOrder, i)
		}
	}
}

func TestCreateInsertsAtFront(t *testing.T) {
	db := fixtureDB()

	it, ch, err := Create(db, CreateInput{Title: "  new child  ", ParentID: "proj"}, testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.Title != "new child" {
		t.Fatalf("title not trimmed: %q", it.Title)
	}
	if it.SortOrder != 0 {
		t.Fatalf("new item sortOrder = %d, want 0", it.SortOrder)
	}
	assertScopeOrders(t, db, "proj", false, []string{it.ID, "a", "b"})

	// The new item's own order travels with its row, not as a delta.
	for _, u := range ch.SortUpdates {
		if u.ID == it.ID {
			t.Fatalf("sort updates include the created item")
		}
	}
	if len(ch.Created) != 1 {
		t.Fatalf("created = %d, want 1", len(ch.Created))
	}
}

func TestCreateValidation(t *testing.T) {
	db := fixtureDB()

	var verr ValidationError
	if _, _, err := Create(db, CreateInput{Title: "   "}, testNow); !errors.As(err, &verr) {
		t.Fatalf("empty title: got %v, want ValidationError", err)
	}
	if _, _, err := Create(db, CreateInput{Title: "x", Kind: "epic"}, testNow); !errors.As(err, &verr) {
		t.Fatalf("bad kind: got %v, want ValidationError", err)
	}
	if _, _, err := Create(db, CreateInput{Title: "x", ParentID: "a"}, testNow); !errors.As(err, &verr) {
		t.Fatalf("nesting under child: got %v, want ValidationError", err)
	}
	var nferr NotFoundError
	if _, _, err := Create(db, CreateInput{Title: "x", ParentID: "ghost"}, testNow); !errors.As(err, &nferr) {
		t.Fatalf("missing parent: got %v, want NotFoundError", err)
	}
}

func TestCreateChildForcesTaskKind(t *testing.T) {
	db := fixtureDB()

	it, _, err := Create(db, CreateInput{Title: "sub", ParentID: "proj", Kind: model.KindProject}, testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.Kind != model.KindTask {
		t.Fatalf("child kind = %s, want task", it.Kind)
	}
}

func TestCreateClearsParentSnapshot(t *testing.T) {
	db := fixtureDB()
	mustFind(t, db, "proj").PrevChildStates = []bool{false, false, true}

	_, ch, err := Create(db, CreateInput{Title: "sub", ParentID: "proj"}, testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ch.SnapshotClearedID != "proj" {
		t.Fatalf("snapshotClearedID = %q, want proj", ch.SnapshotClearedID)
	}
	if mustFind(t, db, "proj").PrevChildStates != nil {
		t.Fatalf("snapshot survived a child-set change")
	}
}

func TestDeleteCascadesAndClosesGap(t *testing.T) {
	db := fixtureDB()
	db.Commitments = append(db.Commitments,
		model.Commitment{ID: "com-1", ItemID: "a", Date: "2025-06-12", CreatedAt: testNow},
		model.Commitment{ID: "com-2", ItemID: "solo", Date: "2025-06-12", CreatedAt: testNow},
	)

	ch, err := Delete(db, "proj")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(ch.DeletedItemIDs) != 4 {
		t.Fatalf("deleted %d items, want 4 (proj + 3 children)", len(ch.DeletedItemIDs))
	}
	for _, id := range []string{"proj", "a", "b", "c"} {
		if _, ok := db.FindItem(id); ok {
			t.Fatalf("%s survived the delete", id)
		}
	}
	if len(db.Commitments) != 1 || db.Commitments[0].ItemID != "solo" {
		t.Fatalf("descendant commitments not removed: %+v", db.Commitments)
	}
	assertScopeOrders(t, db, "", false, []string{"solo"})
}

func TestDeleteChildRenumbersScope(t *testing.T) {
	db := fixtureDB()
	mustFind(t, db, "proj").PrevChildStates = []bool{false, false, true}

	ch, err := Delete(db, "a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertScopeOrders(t, db, "proj", false, []string{"b"})
	assertScopeOrders(t, db, "proj", true, []string{"c"})
	if ch.SnapshotClearedID != "proj" {
		t.Fatalf("deleting a child must invalidate the parent snapshot")
	}
}

func TestToggleLeafMovesPartitions(t *testing.T) {
	db := fixtureDB()

	ch, err := Toggle(db, "a", testNow)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(ch.Completions) != 1 || !ch.Completions[0].Direct {
		t.Fatalf("completions = %+v, want one direct change", ch.Completions)
	}
	a := mustFind(t, db, "a")
	if !a.IsCompleted || a.CompletedAt == nil || !a.CompletedAt.Equal(testNow) {
		t.Fatalf("a not completed at %v: %+v", testNow, a)
	}
	// a appends to the completed partition, after c.
	assertScopeOrders(t, db, "proj", false, []string{"b"})
	assertScopeOrders(t, db, "proj", true, []string{"c", "a"})
}

func TestToggleLastChildAutoCompletesParent(t *testing.T) {
	db := fixtureDB()
	if _, err := Toggle(db, "a", testNow); err != nil {
		t.Fatalf("toggle a: %v", err)
	}

	ch, err := Toggle(db, "b", testNow)
	if err != nil {
		t.Fatalf("toggle b: %v", err)
	}
	proj := mustFind(t, db, "proj")
	if !proj.IsCompleted {
		t.Fatalf("parent did not auto-complete")
	}
	if proj.PrevChildStates != nil || ch.Snapshot != nil {
		t.Fatalf("auto-completion must not capture a snapshot")
	}
	// The parent moved partitions in its own (top-level) scope.
	assertScopeOrders(t, db, "", false, []string{"solo"})
	assertScopeOrders(t, db, "", true, []string{"proj"})
}

func TestToggleParentDirectlyRestoresChildren(t *testing.T) {
	db := fixtureDB()

	ch, err := Toggle(db, "proj", testNow)
	if err != nil {
		t.Fatalf("complete proj: %v", err)
	}
	if ch.Snapshot == nil || ch.Snapshot.ParentID != "proj" {
		t.Fatalf("direct parent completion must capture a snapshot, got %+v", ch.Snapshot)
	}
	wantStates := []bool{false, false, true}
	for i, s := range ch.Snapshot.States {
		if s != wantStates[i] {
			t.Fatalf("snapshot states = %v, want %v", ch.Snapshot.States, wantStates)
		}
	}
	assertScopeOrders(t, db, "proj", true, []string{"c", "a", "b"})

	later := testNow.Add(time.Minute)
	ch, err = Toggle(db, "proj", later)
	if err != nil {
		t.Fatalf("un-complete proj: %v", err)
	}
	if ch.SnapshotClearedID != "proj" {
		t.Fatalf("restore must clear the snapshot")
	}
	if ch.RestoredStates == nil || ch.RestoredStates.ParentID != "proj" {
		t.Fatalf("restore must carry the applied state vector, got %+v", ch.RestoredStates)
	}
	if got := ch.RestoredStates.States; len(got) != 3 || got[0] || got[1] || !got[2] {
		t.Fatalf("restored states = %v, want [false false true]", got)
	}
	// a and b reopen, c stays completed per the snapshot.
	assertScopeOrders(t, db, "proj", false, []string{"a", "b"})
	assertScopeOrders(t, db, "proj", true, []string{"c"})
	if mustFind(t, db, "proj").IsCompleted {
		t.Fatalf("proj still completed after direct un-complete")
	}
}

func TestReorderWithinScope(t *testing.T) {
	db := fixtureDB()

	ch, err := Reorder(db, "proj", "b", "a")
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(ch.SortUpdates) == 0 {
		t.Fatalf("expected sort updates")
	}
	assertScopeOrders(t, db, "proj", false, []string{"b", "a"})

	// Dropping an item onto itself changes nothing.
	ch, err = Reorder(db, "proj", "a", "a")
	if err != nil {
		t.Fatalf("self reorder: %v", err)
	}
	if !ch.Empty() {
		t.Fatalf("self reorder produced changes: %+v", ch)
	}
}

func TestEditNoOpProducesNoChanges(t *testing.T) {
	db := fixtureDB()

	title := mustFind(t, db, "a").Title
	ch, err := Edit(db, "a", EditInput{Title: &title}, testNow)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !ch.Empty() {
		t.Fatalf("no-op edit produced changes: %+v", ch)
	}

	newTitle := "renamed"
	prio := true
	ch, err = Edit(db, "a", EditInput{Title: &newTitle, Priority: &prio}, testNow)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(ch.Updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(ch.Updated))
	}
	a := mustFind(t, db, "a")
	if a.Title != "renamed" || !a.Priority || !a.UpdatedAt.Equal(testNow) {
		t.Fatalf("edit not applied: %+v", a)
	}
}

func TestSetCategory(t *testing.T) {
	db := fixtureDB()
	db.Categories = append(db.Categories, model.Category{ID: "cat-1", Name: "home", CreatedAt: testNow})

	if _, err := SetCategory(db, "solo", "cat-1", testNow); err != nil {
		t.Fatalf("set category: %v", err)
	}
	solo := mustFind(t, db, "solo")
	if solo.CategoryID == nil || *solo.CategoryID != "cat-1" {
		t.Fatalf("category not set: %+v", solo.CategoryID)
	}

	var nferr NotFoundError
	if _, err := SetCategory(db, "solo", "ghost", testNow); !errors.As(err, &nferr) {
		t.Fatalf("missing category: got %v, want NotFoundError", err)
	}

	if _, err := SetCategory(db, "solo", "", testNow); err != nil {
		t.Fatalf("clear category: %v", err)
	}
	if mustFind(t, db, "solo").CategoryID != nil {
		t.Fatalf("category not cleared")
	}
}

func TestCommitAndUncommit(t *testing.T) {
	db := fixtureDB()

	ch, err := Commit(db, "solo", "2025-06-12", testNow)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(ch.CreatedCommitments) != 1 || ch.CreatedCommitments[0].ItemID != "solo" {
		t.Fatalf("commitments = %+v", ch.CreatedCommitments)
	}

	// Same item and date is a no-op.
	ch, err = Commit(db, "solo", "2025-06-12", testNow)
	if err != nil {
		t.Fatalf("repeat commit: %v", err)
	}
	if !ch.Empty() {
		t.Fatalf("repeat commit produced changes: %+v", ch)
	}
	if len(db.Commitments) != 1 {
		t.Fatalf("commitments = %d, want 1", len(db.Commitments))
	}

	var verr ValidationError
	if _, err := Commit(db, "solo", "tomorrow", testNow); !errors.As(err, &verr) {
		t.Fatalf("bad date: got %v, want ValidationError", err)
	}

	ch, err = Uncommit(db, "solo")
	if err != nil {
		t.Fatalf("uncommit: %v", err)
	}
	if ch.DeletedCommitmentID != "solo" || len(db.Commitments) != 0 {
		t.Fatalf("uncommit left %+v", db.Commitments)
	}
}

func TestToggleSortUpdatesCoverBothPartitions(t *testing.T) {
	db := fixtureDB()

	ch, err := Toggle(db, "a", testNow)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	byID := map[string]order.Update{}
	for _, u := range ch.SortUpdates {
		byID[u.ID] = u
	}
	// b closes the gap in the open partition, a lands at the end of the
	// completed one.
	if u, ok := byID["b"]; !ok || u.SortOrder != 0 {
		t.Fatalf("b update = %+v, want sortOrder 0", byID["b"])
	}
	if u, ok := byID["a"]; !ok || u.SortOrder != 1 {
		t.Fatalf("a update = %+v, want sortOrder 1", byID["a"])
	}
}
