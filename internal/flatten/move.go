package flatten

// Move is a flat-list drag translated back into a sibling-scope reorder.
// ParentID is empty for the top-level scope.
type Move struct {
	ParentID  string
	DroppedID string
	TargetID  string
}

// TranslateMove maps "drop the row at fromIdx onto the row at toIdx" to the
// enclosing sibling scope. Moves are rejected (ok=false) when either row is
// synthetic or when the two rows live in different scopes: dragging a child
// out of its parent's section is a no-op, not a reparent.
func TranslateMove(rows []Row, fromIdx, toIdx int) (Move, bool) {
	if fromIdx < 0 || fromIdx >= len(rows) || toIdx < 0 || toIdx >= len(rows) {
		return Move{}, false
	}
	from := rows[fromIdx]
	to := rows[toIdx]
	if from.Item == nil || to.Item == nil {
		return Move{}, false
	}

	switch {
	case from.Type == RowParent && to.Type == RowParent:
		return Move{DroppedID: from.Item.ID, TargetID: to.Item.ID}, true
	case from.Type == RowChild && to.Type == RowChild && from.ParentID == to.ParentID:
		return Move{ParentID: from.ParentID, DroppedID: from.Item.ID, TargetID: to.Item.ID}, true
	default:
		return Move{}, false
	}
}
