package boardclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDropTarget_List(t *testing.T) {
	state := NewStore(testSnapshot()).Snapshot()

	target := ResolveDropTarget(state, "list-a")
	require.NotNil(t, target)
	assert.Equal(t, "list-a", target.ListID)
	assert.Equal(t, 3, target.Index) // append at end

	target = ResolveDropTarget(state, "list-b")
	require.NotNil(t, target)
	assert.Equal(t, "list-b", target.ListID)
	assert.Equal(t, 0, target.Index) // empty list
}

func TestResolveDropTarget_Task(t *testing.T) {
	state := NewStore(testSnapshot()).Snapshot()

	target := ResolveDropTarget(state, "t2")
	require.NotNil(t, target)
	assert.Equal(t, "list-a", target.ListID)
	assert.Equal(t, 1, target.Index)
}

func TestResolveDropTarget_Unknown(t *testing.T) {
	state := NewStore(testSnapshot()).Snapshot()

	// A stale ID, e.g. a task deleted by another client mid-drag.
	assert.Nil(t, ResolveDropTarget(state, "deleted-elsewhere"))
}
