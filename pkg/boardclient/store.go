// Package boardclient implements the client side of the task move
// protocol: a local board store with optimistic mutation, drop-target
// resolution, the drag gesture state machine, move persistence, and
// reconciliation of broadcast events from other clients.
package boardclient

import (
	"sync"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"
)

// ListState is a list together with its ordered tasks.
type ListState struct {
	List  v1.List
	Tasks []v1.Task
}

// BoardState is a value snapshot of one board: lists in position order,
// each holding its tasks in position order. Task positions always mirror
// slice indices.
type BoardState struct {
	Board v1.Board
	Lists []ListState
}

// StateFromSnapshot builds a BoardState from the server's wire snapshot.
func StateFromSnapshot(snap *v1.BoardSnapshot) BoardState {
	state := BoardState{Board: snap.Board, Lists: make([]ListState, 0, len(snap.Lists))}
	for _, ls := range snap.Lists {
		tasks := make([]v1.Task, len(ls.Tasks))
		copy(tasks, ls.Tasks)
		state.Lists = append(state.Lists, ListState{List: ls.List, Tasks: tasks})
	}
	return state
}

// clone deep-copies the state so callers can hold snapshots safely.
func (s BoardState) clone() BoardState {
	out := BoardState{Board: s.Board, Lists: make([]ListState, len(s.Lists))}
	for i, ls := range s.Lists {
		tasks := make([]v1.Task, len(ls.Tasks))
		copy(tasks, ls.Tasks)
		out.Lists[i] = ListState{List: ls.List, Tasks: tasks}
	}
	return out
}

// locate finds a task, returning its list index and index within the list.
func (s *BoardState) locate(taskID string) (listIdx, taskIdx int, ok bool) {
	for li := range s.Lists {
		for ti := range s.Lists[li].Tasks {
			if s.Lists[li].Tasks[ti].ID == taskID {
				return li, ti, true
			}
		}
	}
	return 0, 0, false
}

// listIndex finds a list by ID.
func (s *BoardState) listIndex(listID string) (int, bool) {
	for i := range s.Lists {
		if s.Lists[i].List.ID == listID {
			return i, true
		}
	}
	return 0, false
}

// moveTask removes the task from its current list and inserts it into the
// destination list at index, renumbering both lists so positions stay
// contiguous. The index is interpreted with the moved task already removed,
// which makes it equal to the task's final resting index; it is clamped to
// the destination's valid range. Returns whether the state changed and
// whether the task and destination were known.
func (s *BoardState) moveTask(taskID, toListID string, index int) (changed, ok bool) {
	srcLi, srcTi, found := s.locate(taskID)
	if !found {
		return false, false
	}
	dstLi, found := s.listIndex(toListID)
	if !found {
		return false, false
	}

	task := s.Lists[srcLi].Tasks[srcTi]

	// Remove from source.
	src := s.Lists[srcLi].Tasks
	s.Lists[srcLi].Tasks = append(src[:srcTi], src[srcTi+1:]...)

	dst := s.Lists[dstLi].Tasks
	if index < 0 {
		index = 0
	}
	if index > len(dst) {
		index = len(dst)
	}

	if srcLi == dstLi && index == srcTi {
		// Same slot after removal: re-insert and report no change.
		changed = false
	} else {
		changed = true
	}

	task.ListID = toListID
	dst = append(dst[:index], append([]v1.Task{task}, dst[index:]...)...)
	s.Lists[dstLi].Tasks = dst

	s.renumber(srcLi)
	if dstLi != srcLi {
		s.renumber(dstLi)
	}
	return changed, true
}

// renumber rewrites positions 0..n-1 over a list's current order.
func (s *BoardState) renumber(listIdx int) {
	for i := range s.Lists[listIdx].Tasks {
		s.Lists[listIdx].Tasks[i].Position = i
	}
}

// Location identifies where a task currently sits.
type Location struct {
	ListID string
	Index  int
}

// Store holds the client's local copy of one board. All mutation flows
// through the store's methods under a single lock, so optimistic applies,
// broadcast reconciliation, and full replacements serialize cleanly.
type Store struct {
	mu    sync.Mutex
	state BoardState
}

// NewStore creates a store seeded from a board snapshot.
func NewStore(snap *v1.BoardSnapshot) *Store {
	return &Store{state: StateFromSnapshot(snap)}
}

// Replace swaps in a freshly fetched snapshot, discarding all local state.
// This is the full-resynchronization recovery path.
func (st *Store) Replace(snap *v1.BoardSnapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = StateFromSnapshot(snap)
}

// Snapshot returns a deep copy of the current state.
func (st *Store) Snapshot() BoardState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.clone()
}

// Locate reports the task's current list and index.
func (st *Store) Locate(taskID string) (Location, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	li, ti, ok := st.state.locate(taskID)
	if !ok {
		return Location{}, false
	}
	return Location{ListID: st.state.Lists[li].List.ID, Index: ti}, true
}

// ApplyLocalMove applies an optimistic move. index is the visible index in
// the destination list, i.e. counted with the dragged task still in place;
// for a same-list move past the task's own slot the index shifts down by
// one once the task is lifted out. Re-applying the same target reports
// changed=false, which keeps repeated drag-over events cheap and lets the
// gesture layer detect no-op drops. ok=false means the task or destination
// list is unknown to the local state.
func (st *Store) ApplyLocalMove(taskID, toListID string, index int) (changed, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	li, ti, found := st.state.locate(taskID)
	if found && st.state.Lists[li].List.ID == toListID && ti < index {
		index--
	}
	return st.state.moveTask(taskID, toListID, index)
}

// ApplyRemoteMove reconciles a broadcast move from another client. Unknown
// task or list IDs are tolerated silently: the event may concern state this
// client has not seen yet, and the next full fetch converges it. Applying
// the same event twice is a no-op.
func (st *Store) ApplyRemoteMove(taskID, toListID string, index int) (changed bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	changed, _ = st.state.moveTask(taskID, toListID, index)
	return changed
}
