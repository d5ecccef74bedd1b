package boardclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"
)

type moveCall struct {
	taskID   string
	listID   string
	position int
}

// fakePersister records move requests and serves canned snapshots.
type fakePersister struct {
	moves    []moveCall
	moveErr  error
	fetches  int
	fetchErr error
	snapshot *v1.BoardSnapshot
}

func (f *fakePersister) MoveTask(ctx context.Context, taskID, listID string, position int) error {
	f.moves = append(f.moves, moveCall{taskID, listID, position})
	return f.moveErr
}

func (f *fakePersister) FetchBoard(ctx context.Context, boardID string) (*v1.BoardSnapshot, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot, nil
}

func setupGesture(t *testing.T) (*Gesture, *Store, *fakePersister) {
	t.Helper()
	store := NewStore(testSnapshot())
	persister := &fakePersister{snapshot: testSnapshot()}
	return NewGesture(store, persister, "board-1"), store, persister
}

func TestGesture_DropAtOriginSkipsRequest(t *testing.T) {
	g, _, persister := setupGesture(t)

	require.NoError(t, g.Start("t2"))
	g.HoverOver("t2")
	require.NoError(t, g.Drop(context.Background(), "t2"))

	assert.Empty(t, persister.moves, "drop at origin must not hit the network")
	assert.Equal(t, StateIdle, g.State())
}

func TestGesture_CrossListDrop(t *testing.T) {
	g, store, persister := setupGesture(t)

	require.NoError(t, g.Start("t2"))
	g.HoverOver("list-b")
	assert.Equal(t, StateHovering, g.State())
	require.NoError(t, g.Drop(context.Background(), "list-b"))

	assert.Equal(t, []string{"t1", "t3"}, taskOrder(t, store, "list-a"))
	assert.Equal(t, []string{"t2"}, taskOrder(t, store, "list-b"))
	require.Len(t, persister.moves, 1)
	assert.Equal(t, moveCall{"t2", "list-b", 0}, persister.moves[0])
	assert.Equal(t, StateIdle, g.State())
}

func TestGesture_WithinListReorder(t *testing.T) {
	g, store, persister := setupGesture(t)

	require.NoError(t, g.Start("t3"))
	g.HoverOver("t1")
	require.NoError(t, g.Drop(context.Background(), "t1"))

	assert.Equal(t, []string{"t3", "t1", "t2"}, taskOrder(t, store, "list-a"))
	require.Len(t, persister.moves, 1)
	assert.Equal(t, moveCall{"t3", "list-a", 0}, persister.moves[0])
	assert.Zero(t, persister.fetches)
}

func TestGesture_RepeatedHoverIsIdempotent(t *testing.T) {
	g, store, _ := setupGesture(t)

	require.NoError(t, g.Start("t2"))
	g.HoverOver("list-b")
	g.HoverOver("list-b")
	g.HoverOver("list-b")

	assert.Equal(t, []string{"t2"}, taskOrder(t, store, "list-b"))
}

func TestGesture_PersistFailureResynchronizes(t *testing.T) {
	g, store, persister := setupGesture(t)
	persister.moveErr = errors.New("connection refused")

	require.NoError(t, g.Start("t2"))
	g.HoverOver("list-b")
	err := g.Drop(context.Background(), "list-b")
	require.Error(t, err)

	// Local optimistic state is discarded wholesale in favor of the
	// freshly fetched board.
	assert.Equal(t, 1, persister.fetches)
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, store, "list-a"))
	assert.Empty(t, taskOrder(t, store, "list-b"))
	assert.Equal(t, StateIdle, g.State())
}

func TestGesture_CancelWithoutCrossListMoveIsPureNoop(t *testing.T) {
	g, store, persister := setupGesture(t)

	require.NoError(t, g.Start("t2"))
	g.HoverOver("t3")
	require.NoError(t, g.Cancel(context.Background()))

	assert.Zero(t, persister.fetches)
	assert.Empty(t, persister.moves)
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, store, "list-a"))
}

func TestGesture_CancelAfterCrossListMoveRefetches(t *testing.T) {
	g, store, persister := setupGesture(t)

	require.NoError(t, g.Start("t2"))
	g.HoverOver("list-b")
	require.NoError(t, g.Cancel(context.Background()))

	assert.Equal(t, 1, persister.fetches)
	assert.Empty(t, persister.moves)
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, store, "list-a"))
}

func TestGesture_DropOnStaleTargetAfterCrossListMove(t *testing.T) {
	g, _, persister := setupGesture(t)

	require.NoError(t, g.Start("t2"))
	g.HoverOver("list-b")
	// The hovered element vanished before the drop landed.
	require.NoError(t, g.Drop(context.Background(), "deleted-elsewhere"))

	assert.Empty(t, persister.moves)
	assert.Equal(t, 1, persister.fetches)
	assert.Equal(t, StateIdle, g.State())
}

func TestGesture_StartWhileDragging(t *testing.T) {
	g, _, _ := setupGesture(t)

	require.NoError(t, g.Start("t1"))
	assert.Error(t, g.Start("t2"))
}

func TestGesture_StartUnknownTask(t *testing.T) {
	g, _, _ := setupGesture(t)
	assert.Error(t, g.Start("ghost"))
}
