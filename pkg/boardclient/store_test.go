package boardclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"
)

// testSnapshot builds a board with list A holding T1,T2,T3 and list B empty.
func testSnapshot() *v1.BoardSnapshot {
	return &v1.BoardSnapshot{
		Board: v1.Board{ID: "board-1", Name: "Test Board"},
		Lists: []v1.ListSnapshot{
			{
				List: v1.List{ID: "list-a", BoardID: "board-1", Title: "A", Position: 0},
				Tasks: []v1.Task{
					{ID: "t1", BoardID: "board-1", ListID: "list-a", Title: "T1", Position: 0},
					{ID: "t2", BoardID: "board-1", ListID: "list-a", Title: "T2", Position: 1},
					{ID: "t3", BoardID: "board-1", ListID: "list-a", Title: "T3", Position: 2},
				},
			},
			{
				List:  v1.List{ID: "list-b", BoardID: "board-1", Title: "B", Position: 1},
				Tasks: []v1.Task{},
			},
		},
	}
}

// taskOrder returns the task IDs of a list in order.
func taskOrder(t *testing.T, st *Store, listID string) []string {
	t.Helper()
	state := st.Snapshot()
	for _, ls := range state.Lists {
		if ls.List.ID == listID {
			ids := make([]string, len(ls.Tasks))
			for i, task := range ls.Tasks {
				ids[i] = task.ID
			}
			return ids
		}
	}
	t.Fatalf("list %s not found", listID)
	return nil
}

// assertContiguousPositions checks positions are 0..n-1 in every list and
// each task's ListID matches the list holding it.
func assertContiguousPositions(t *testing.T, st *Store) {
	t.Helper()
	state := st.Snapshot()
	for _, ls := range state.Lists {
		for i, task := range ls.Tasks {
			assert.Equal(t, i, task.Position, "task %s in list %s", task.ID, ls.List.ID)
			assert.Equal(t, ls.List.ID, task.ListID, "task %s list membership", task.ID)
		}
	}
}

func TestApplyLocalMove_CrossList(t *testing.T) {
	st := NewStore(testSnapshot())

	changed, ok := st.ApplyLocalMove("t2", "list-b", 0)
	require.True(t, ok)
	require.True(t, changed)

	assert.Equal(t, []string{"t1", "t3"}, taskOrder(t, st, "list-a"))
	assert.Equal(t, []string{"t2"}, taskOrder(t, st, "list-b"))
	assertContiguousPositions(t, st)
}

func TestApplyLocalMove_WithinList(t *testing.T) {
	st := NewStore(testSnapshot())

	changed, ok := st.ApplyLocalMove("t3", "list-a", 0)
	require.True(t, ok)
	require.True(t, changed)

	assert.Equal(t, []string{"t3", "t1", "t2"}, taskOrder(t, st, "list-a"))
	assertContiguousPositions(t, st)
}

func TestApplyLocalMove_WithinListForward(t *testing.T) {
	st := NewStore(testSnapshot())

	// Visible index 2 is T3's slot; moving T1 there lands it before T3
	// once the removal shift is applied.
	changed, ok := st.ApplyLocalMove("t1", "list-a", 2)
	require.True(t, ok)
	require.True(t, changed)

	assert.Equal(t, []string{"t2", "t1", "t3"}, taskOrder(t, st, "list-a"))
	assertContiguousPositions(t, st)
}

func TestApplyLocalMove_SameTargetIsNoop(t *testing.T) {
	st := NewStore(testSnapshot())

	changed, ok := st.ApplyLocalMove("t2", "list-b", 0)
	require.True(t, ok)
	require.True(t, changed)

	// Repeated drag-over with the same target must not change anything.
	changed, ok = st.ApplyLocalMove("t2", "list-b", 0)
	require.True(t, ok)
	assert.False(t, changed)

	assert.Equal(t, []string{"t2"}, taskOrder(t, st, "list-b"))
	assertContiguousPositions(t, st)
}

func TestApplyLocalMove_UnknownIDs(t *testing.T) {
	st := NewStore(testSnapshot())

	_, ok := st.ApplyLocalMove("missing", "list-b", 0)
	assert.False(t, ok)

	_, ok = st.ApplyLocalMove("t1", "missing", 0)
	assert.False(t, ok)

	// State untouched.
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, st, "list-a"))
}

func TestApplyLocalMove_PositionClamped(t *testing.T) {
	st := NewStore(testSnapshot())

	changed, ok := st.ApplyLocalMove("t1", "list-b", 99)
	require.True(t, ok)
	require.True(t, changed)
	assert.Equal(t, []string{"t1"}, taskOrder(t, st, "list-b"))

	changed, ok = st.ApplyLocalMove("t2", "list-b", -5)
	require.True(t, ok)
	require.True(t, changed)
	assert.Equal(t, []string{"t2", "t1"}, taskOrder(t, st, "list-b"))
	assertContiguousPositions(t, st)
}

func TestApplyRemoteMove_Idempotent(t *testing.T) {
	st := NewStore(testSnapshot())

	changed := st.ApplyRemoteMove("t2", "list-b", 0)
	require.True(t, changed)
	first := st.Snapshot()

	changed = st.ApplyRemoteMove("t2", "list-b", 0)
	assert.False(t, changed)
	assert.Equal(t, first, st.Snapshot())
	assertContiguousPositions(t, st)
}

func TestApplyRemoteMove_UnknownTaskTolerated(t *testing.T) {
	st := NewStore(testSnapshot())

	changed := st.ApplyRemoteMove("ghost", "list-b", 0)
	assert.False(t, changed)
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, st, "list-a"))
}

func TestCrossListMove_PreservesRelativeOrder(t *testing.T) {
	st := NewStore(testSnapshot())

	_, ok := st.ApplyLocalMove("t2", "list-b", 0)
	require.True(t, ok)

	// Untouched tasks keep their relative order in the source list.
	assert.Equal(t, []string{"t1", "t3"}, taskOrder(t, st, "list-a"))
	assertContiguousPositions(t, st)
}

func TestOptimisticMoveSequence_NoDuplicatePositions(t *testing.T) {
	st := NewStore(testSnapshot())

	moves := []struct {
		taskID string
		listID string
		index  int
	}{
		{"t2", "list-b", 0},
		{"t1", "list-b", 1},
		{"t1", "list-a", 0},
		{"t3", "list-b", 0},
		{"t3", "list-b", 0}, // repeat
		{"t2", "list-a", 1},
	}
	for _, m := range moves {
		_, ok := st.ApplyLocalMove(m.taskID, m.listID, m.index)
		require.True(t, ok, "move %+v", m)
		assertContiguousPositions(t, st)
	}

	// Every task still exists exactly once.
	state := st.Snapshot()
	seen := map[string]int{}
	for _, ls := range state.Lists {
		for _, task := range ls.Tasks {
			seen[task.ID]++
		}
	}
	assert.Equal(t, map[string]int{"t1": 1, "t2": 1, "t3": 1}, seen)
}

func TestReplace_DiscardsLocalState(t *testing.T) {
	st := NewStore(testSnapshot())

	_, ok := st.ApplyLocalMove("t1", "list-b", 0)
	require.True(t, ok)

	st.Replace(testSnapshot())
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, st, "list-a"))
	assert.Empty(t, taskOrder(t, st, "list-b"))
}

func TestLocate(t *testing.T) {
	st := NewStore(testSnapshot())

	loc, ok := st.Locate("t2")
	require.True(t, ok)
	assert.Equal(t, Location{ListID: "list-a", Index: 1}, loc)

	_, ok = st.Locate("missing")
	assert.False(t, ok)
}

func TestSnapshot_IsACopy(t *testing.T) {
	st := NewStore(testSnapshot())

	snap := st.Snapshot()
	snap.Lists[0].Tasks[0].Title = "mutated"

	fresh := st.Snapshot()
	assert.Equal(t, "T1", fresh.Lists[0].Tasks[0].Title)
}
