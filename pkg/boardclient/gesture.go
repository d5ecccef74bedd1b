package boardclient

import (
	"context"
	"fmt"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"
)

// Persister is the server-facing surface the gesture layer needs: one
// authoritative move request and the full-board fetch used for recovery.
// *Client satisfies it.
type Persister interface {
	MoveTask(ctx context.Context, taskID, listID string, position int) error
	FetchBoard(ctx context.Context, boardID string) (*v1.BoardSnapshot, error)
}

// GestureState is the drag gesture's lifecycle state.
type GestureState int

const (
	// StateIdle means no drag is in progress.
	StateIdle GestureState = iota
	// StateDragging means a drag has started and its origin is captured.
	StateDragging
	// StateHovering means at least one drag-over has been processed.
	StateHovering
	// StateDropped means the drop landed and persistence is being attempted.
	StateDropped
)

// Gesture drives a single drag-and-drop interaction over a Store:
// Idle -> Dragging -> Hovering* -> Dropped -> Idle. Events for one gesture
// arrive sequentially from the caller's event loop; a Gesture is not safe
// for concurrent use.
type Gesture struct {
	store     *Store
	persister Persister
	boardID   string

	state          GestureState
	taskID         string
	origin         Location
	crossListMoved bool
}

// NewGesture creates a gesture handler for one board.
func NewGesture(store *Store, persister Persister, boardID string) *Gesture {
	return &Gesture{
		store:     store,
		persister: persister,
		boardID:   boardID,
	}
}

// State returns the current gesture state.
func (g *Gesture) State() GestureState {
	return g.state
}

// Start begins a drag, capturing the task's pre-drag location so a drop
// back at the origin can skip persistence.
func (g *Gesture) Start(taskID string) error {
	if g.state != StateIdle {
		return fmt.Errorf("drag already in progress for task %s", g.taskID)
	}
	origin, ok := g.store.Locate(taskID)
	if !ok {
		return fmt.Errorf("unknown task %s", taskID)
	}
	g.taskID = taskID
	g.origin = origin
	g.crossListMoved = false
	g.state = StateDragging
	return nil
}

// HoverOver processes a drag-over event. When the hovered target resolves
// to another list, the move is applied optimistically so the UI reflects
// the tentative placement; repeated hovers over the same target change
// nothing. Unresolvable targets are ignored while hovering — the drag
// simply has no effect until it lands somewhere known.
func (g *Gesture) HoverOver(overID string) {
	if g.state != StateDragging && g.state != StateHovering {
		return
	}
	g.state = StateHovering

	target := ResolveDropTarget(g.store.Snapshot(), overID)
	if target == nil {
		return
	}
	current, ok := g.store.Locate(g.taskID)
	if !ok {
		return
	}
	if target.ListID == current.ListID {
		// Within-list preview is deferred to the drop; only cross-list
		// membership changes are applied mid-drag.
		return
	}
	changed, ok := g.store.ApplyLocalMove(g.taskID, target.ListID, target.Index)
	if ok && changed {
		g.crossListMoved = true
	}
}

// Drop finishes the gesture at the hovered target. A target that no longer
// resolves is treated as a cancellation. A drop that leaves the task at its
// pre-drag location makes no network call. Otherwise exactly one move
// request is issued; on failure the board is re-fetched wholesale so local
// state converges back to server truth, and the error is returned for the
// caller to surface.
func (g *Gesture) Drop(ctx context.Context, overID string) error {
	if g.state != StateDragging && g.state != StateHovering {
		return fmt.Errorf("no drag in progress")
	}

	target := ResolveDropTarget(g.store.Snapshot(), overID)
	if target == nil {
		return g.Cancel(ctx)
	}

	if _, ok := g.store.ApplyLocalMove(g.taskID, target.ListID, target.Index); !ok {
		return g.Cancel(ctx)
	}

	final, ok := g.store.Locate(g.taskID)
	if !ok {
		return g.Cancel(ctx)
	}

	if final == g.origin {
		// Nothing moved; skip the request entirely.
		g.reset()
		return nil
	}

	g.state = StateDropped
	taskID := g.taskID
	err := g.persister.MoveTask(ctx, taskID, final.ListID, final.Index)
	g.reset()

	if err != nil {
		if syncErr := g.resync(ctx); syncErr != nil {
			return fmt.Errorf("move failed: %w (resync also failed: %v)", err, syncErr)
		}
		return fmt.Errorf("move failed, board resynchronized: %w", err)
	}
	return nil
}

// Cancel abandons the gesture. If no cross-list optimistic move happened
// the local state was never disturbed and nothing needs reverting; if one
// did, the only safe recovery is replacing local state from the server.
func (g *Gesture) Cancel(ctx context.Context) error {
	needsResync := g.crossListMoved
	g.reset()
	if !needsResync {
		return nil
	}
	return g.resync(ctx)
}

// resync replaces the store from a fresh full-board fetch.
func (g *Gesture) resync(ctx context.Context) error {
	snapshot, err := g.persister.FetchBoard(ctx, g.boardID)
	if err != nil {
		return err
	}
	g.store.Replace(snapshot)
	return nil
}

func (g *Gesture) reset() {
	g.state = StateIdle
	g.taskID = ""
	g.origin = Location{}
	g.crossListMoved = false
}
