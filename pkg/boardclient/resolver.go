package boardclient

// DropTarget is where a drop would insert the dragged task: a list and a
// visible index within it (counted with the dragged task still in place).
type DropTarget struct {
	ListID string
	Index  int
}

// ResolveDropTarget maps the identifier the drag is hovering over to an
// insertion point. A list ID means an empty-list or end-of-list drop and
// resolves to appending at the end; a task ID resolves to inserting at
// that task's current index. Returns nil when the ID matches neither — the
// hovered element may have been removed by another client mid-drag, and a
// stale target must not produce a move.
func ResolveDropTarget(state BoardState, overID string) *DropTarget {
	for li := range state.Lists {
		if state.Lists[li].List.ID == overID {
			return &DropTarget{
				ListID: overID,
				Index:  len(state.Lists[li].Tasks),
			}
		}
		for ti := range state.Lists[li].Tasks {
			if state.Lists[li].Tasks[ti].ID == overID {
				return &DropTarget{
					ListID: state.Lists[li].List.ID,
					Index:  ti,
				}
			}
		}
	}
	return nil
}
