package tui

import (
	"strings"

	"github.com/pelissiertools-cpu/focus/internal/flatten"
)

// rowItem is one display line in the outline list.
type rowItem struct {
	row flatten.Row
	// text is the fully composed line, indentation included. Composed when
	// the rows are rebuilt, so the delegate only does width fitting.
	text string
	// muted rows (synthetic affordances, completed items) render dim.
	muted bool
}

func (r rowItem) FilterValue() string {
	if r.row.Item != nil {
		return r.row.Item.Title
	}
	return ""
}

// composeRowText builds the text for one flattened row.
func composeRowText(row flatten.Row, expanded, committed map[string]bool) string {
	switch row.Type {
	case flatten.RowParent:
		it := row.Item
		var b strings.Builder
		if expanded[it.ID] {
			b.WriteString(glyphTwistyExpanded())
		} else {
			b.WriteString(glyphTwistyCollapsed())
		}
		b.WriteString(" ")
		writeCheckbox(&b, it.IsCompleted)
		b.WriteString(" ")
		b.WriteString(it.Title)
		if it.Priority {
			b.WriteString(" ")
			b.WriteString(glyphPriority())
		}
		if committed[it.ID] {
			b.WriteString(" ")
			b.WriteString(glyphCommitted())
		}
		return b.String()
	case flatten.RowChild:
		it := row.Item
		var b strings.Builder
		b.WriteString("    ")
		writeCheckbox(&b, it.IsCompleted)
		b.WriteString(" ")
		b.WriteString(it.Title)
		if it.Priority {
			b.WriteString(" ")
			b.WriteString(glyphPriority())
		}
		return b.String()
	case flatten.RowAddChild:
		return "    + add item"
	case flatten.RowDoneMarker:
		return "    " + glyphHRule() + " done " + glyphHRule()
	default:
		return ""
	}
}

func writeCheckbox(b *strings.Builder, done bool) {
	if done {
		b.WriteString(glyphCheckboxDone())
	} else {
		b.WriteString(glyphCheckboxOpen())
	}
}
