// Package flatten projects a parent/child item tree into the single flat row
// sequence the UI renders as one reorderable list.
//
// The projection is pure: it has no side effects and is recomputed in full on
// every state change. At the expected list sizes (tens to low hundreds of
// rows) incremental maintenance is not worth its complexity.
package flatten

import (
	"sort"
	"strings"

	"github.com/pelissiertools-cpu/focus/internal/model"
)

type RowType string

const (
	RowParent     RowType = "parent"
	RowChild      RowType = "child"
	RowAddChild   RowType = "add-child"
	RowDoneMarker RowType = "done-marker"
)

// Row is one display line. Item is nil for the synthetic add-child and
// done-marker rows. ParentID is the enclosing parent for child and synthetic
// rows, empty for parent rows.
type Row struct {
	Type     RowType
	Item     *model.Item
	ParentID string
}

type SortKey string

const (
	SortManual   SortKey = "manual"
	SortCreated  SortKey = "created"
	SortPriority SortKey = "priority"
)

type Sort struct {
	Key  SortKey
	Desc bool
}

// Filters narrows the parent rows. Zero values mean "no filter".
type Filters struct {
	CategoryID string
	// Committed filters on commitment membership when non-nil.
	Committed *bool
	// Search is a case-insensitive title substring match.
	Search string
}

// Project flattens the tree. Parents are filtered and sorted; every parent in
// the expanded set additionally emits its uncompleted children in child sort
// order, an add-child affordance, and a done-section marker when completed
// children exist.
func Project(parents []*model.Item, childrenByParent map[string][]*model.Item, expanded map[string]bool, committed map[string]bool, f Filters, s Sort) []Row {
	kept := make([]*model.Item, 0, len(parents))
	for _, p := range parents {
		if !matches(p, committed, f) {
			continue
		}
		kept = append(kept, p)
	}
	sortParents(kept, s)

	var out []Row
	for _, p := range kept {
		out = append(out, Row{Type: RowParent, Item: p})
		if !expanded[p.ID] {
			continue
		}

		children := append([]*model.Item{}, childrenByParent[p.ID]...)
		sort.SliceStable(children, func(i, j int) bool {
			return compareManual(children[i], children[j]) < 0
		})

		hasDone := false
		for _, ch := range children {
			if ch.IsCompleted {
				hasDone = true
				continue
			}
			out = append(out, Row{Type: RowChild, Item: ch, ParentID: p.ID})
		}
		out = append(out, Row{Type: RowAddChild, ParentID: p.ID})
		if hasDone {
			out = append(out, Row{Type: RowDoneMarker, ParentID: p.ID})
		}
	}
	return out
}

func matches(p *model.Item, committed map[string]bool, f Filters) bool {
	if f.CategoryID != "" {
		if p.CategoryID == nil || *p.CategoryID != f.CategoryID {
			return false
		}
	}
	if f.Committed != nil && committed[p.ID] != *f.Committed {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(p.Title), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

func sortParents(parents []*model.Item, s Sort) {
	cmp := compareManual
	switch s.Key {
	case SortCreated:
		cmp = compareCreated
	case SortPriority:
		cmp = comparePriority
	}
	sort.SliceStable(parents, func(i, j int) bool {
		c := cmp(parents[i], parents[j])
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

func compareManual(a, b *model.Item) int {
	if a.SortOrder != b.SortOrder {
		if a.SortOrder < b.SortOrder {
			return -1
		}
		return 1
	}
	return compareCreated(a, b)
}

func compareCreated(a, b *model.Item) int {
	if a.CreatedAt.Before(b.CreatedAt) {
		return -1
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return 1
	}
	// Equal timestamps must still order deterministically, otherwise the list
	// reshuffles between renders.
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}

// comparePriority puts flagged items first; ties fall back to creation time.
func comparePriority(a, b *model.Item) int {
	if a.Priority != b.Priority {
		if a.Priority {
			return -1
		}
		return 1
	}
	return compareCreated(a, b)
}
