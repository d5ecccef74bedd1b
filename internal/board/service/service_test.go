package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/board/repository"
	"github.com/cardwall/cardwall/internal/common/errors"
	"github.com/cardwall/cardwall/internal/common/logger"
	"github.com/cardwall/cardwall/internal/events"
	"github.com/cardwall/cardwall/internal/events/bus"
)

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []*bus.Event
}

func (r *recordingBus) Publish(ctx context.Context, subject string, event *bus.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingBus) Subscribe(subject string, handler bus.EventHandler) (bus.Subscription, error) {
	return nil, nil
}

func (r *recordingBus) QueueSubscribe(subject, queue string, handler bus.EventHandler) (bus.Subscription, error) {
	return nil, nil
}

func (r *recordingBus) Close() {}

func (r *recordingBus) IsConnected() bool { return true }

func (r *recordingBus) byType(eventType string) []*bus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bus.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func setupService(t *testing.T) (*Service, *recordingBus) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	eventBus := &recordingBus{}
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	require.NoError(t, err)
	return NewService(repo, eventBus, log), eventBus
}

// seedBoard creates a board owned by "owner" with lists A (three tasks) and
// B (empty), returning board, lists, and tasks.
func seedBoard(t *testing.T, svc *Service) (*models.Board, []*models.List, []*models.Task) {
	t.Helper()
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "owner", "Roadmap", "team roadmap")
	require.NoError(t, err)

	listA, err := svc.CreateList(ctx, "owner", board.ID, "A")
	require.NoError(t, err)
	listB, err := svc.CreateList(ctx, "owner", board.ID, "B")
	require.NoError(t, err)

	var tasks []*models.Task
	for _, title := range []string{"T1", "T2", "T3"} {
		task, err := svc.CreateTask(ctx, "owner", listA.ID, title, "")
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	return board, []*models.List{listA, listB}, tasks
}

func listOrder(t *testing.T, svc *Service, userID, listID string) []string {
	t.Helper()
	tasks, err := svc.ListTasksByList(context.Background(), userID, listID)
	require.NoError(t, err)
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
		assert.Equal(t, i, task.Position, "positions must be contiguous")
	}
	return ids
}

func TestCreateBoard_EnrollsOwner(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	board, err := svc.CreateBoard(ctx, "alice", "Plans", "")
	require.NoError(t, err)

	members, err := svc.ListMembers(ctx, "alice", board.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].UserID)
	assert.Equal(t, v1.RoleOwner, members[0].Role)
}

func TestMoveTask_CrossList(t *testing.T) {
	svc, eventBus := setupService(t)
	ctx := context.Background()
	_, lists, tasks := seedBoard(t, svc)

	moved, err := svc.MoveTask(ctx, "owner", tasks[1].ID, lists[1].ID, 0, "client-1")
	require.NoError(t, err)
	assert.Equal(t, lists[1].ID, moved.ListID)
	assert.Equal(t, 0, moved.Position)

	assert.Equal(t, []string{tasks[0].ID, tasks[2].ID}, listOrder(t, svc, "owner", lists[0].ID))
	assert.Equal(t, []string{tasks[1].ID}, listOrder(t, svc, "owner", lists[1].ID))

	published := eventBus.byType(events.TaskMoved)
	require.Len(t, published, 1)
	assert.Equal(t, "client-1", published[0].Data["origin"])
	assert.Equal(t, lists[1].ID, published[0].Data["to_list_id"])
	assert.Equal(t, 0, published[0].Data["position"])
}

func TestMoveTask_WithinList(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, lists, tasks := seedBoard(t, svc)

	_, err := svc.MoveTask(ctx, "owner", tasks[2].ID, lists[0].ID, 0, "")
	require.NoError(t, err)

	assert.Equal(t, []string{tasks[2].ID, tasks[0].ID, tasks[1].ID}, listOrder(t, svc, "owner", lists[0].ID))
}

func TestMoveTask_PositionClamped(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, lists, tasks := seedBoard(t, svc)

	moved, err := svc.MoveTask(ctx, "owner", tasks[0].ID, lists[1].ID, 99, "")
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)

	moved, err = svc.MoveTask(ctx, "owner", tasks[1].ID, lists[1].ID, -3, "")
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
	assert.Equal(t, []string{tasks[1].ID, tasks[0].ID}, listOrder(t, svc, "owner", lists[1].ID))
}

func TestMoveTask_UnknownDestination(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, _, tasks := seedBoard(t, svc)

	_, err := svc.MoveTask(ctx, "owner", tasks[0].ID, "no-such-list", 0, "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestMoveTask_ListOnAnotherBoard(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, _, tasks := seedBoard(t, svc)

	other, err := svc.CreateBoard(ctx, "owner", "Other", "")
	require.NoError(t, err)
	foreign, err := svc.CreateList(ctx, "owner", other.ID, "Foreign")
	require.NoError(t, err)

	_, err = svc.MoveTask(ctx, "owner", tasks[0].ID, foreign.ID, 0, "")
	require.Error(t, err)
	assert.Equal(t, 400, errors.GetHTTPStatus(err))
}

func TestMoveTask_ViewerForbidden(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	board, lists, tasks := seedBoard(t, svc)

	_, err := svc.AddMember(ctx, "owner", board.ID, "viewer-user", v1.RoleViewer)
	require.NoError(t, err)

	_, err = svc.MoveTask(ctx, "viewer-user", tasks[0].ID, lists[1].ID, 0, "")
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
}

func TestMoveTask_NonMemberForbidden(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, lists, tasks := seedBoard(t, svc)

	_, err := svc.MoveTask(ctx, "stranger", tasks[0].ID, lists[1].ID, 0, "")
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
}

func TestMoveTask_RecordsActivity(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	board, lists, tasks := seedBoard(t, svc)

	_, err := svc.MoveTask(ctx, "owner", tasks[0].ID, lists[1].ID, 0, "")
	require.NoError(t, err)

	activities, err := svc.ListActivity(ctx, "owner", board.ID, 1)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "task.moved", activities[0].Verb)
	assert.Equal(t, tasks[0].ID, activities[0].TaskID)
	assert.Equal(t, "owner", activities[0].ActorID)
}

func TestDeleteTask_RenumbersList(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	_, lists, tasks := seedBoard(t, svc)

	require.NoError(t, svc.DeleteTask(ctx, "owner", tasks[1].ID))
	assert.Equal(t, []string{tasks[0].ID, tasks[2].ID}, listOrder(t, svc, "owner", lists[0].ID))
}

func TestGetBoardSnapshot(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	board, lists, tasks := seedBoard(t, svc)

	snapshot, err := svc.GetBoardSnapshot(ctx, "owner", board.ID)
	require.NoError(t, err)

	require.Len(t, snapshot.Lists, 2)
	assert.Equal(t, lists[0].ID, snapshot.Lists[0].ID)
	require.Len(t, snapshot.Lists[0].Tasks, 3)
	assert.Equal(t, tasks[0].ID, snapshot.Lists[0].Tasks[0].ID)
	assert.Empty(t, snapshot.Lists[1].Tasks)
	// Empty lists must serialize as [], not null, for client consumption.
	assert.NotNil(t, snapshot.Lists[1].Tasks)
}

func TestMoveList(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	board, lists, _ := seedBoard(t, svc)

	moved, err := svc.MoveList(ctx, "owner", lists[1].ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)

	all, err := svc.ListLists(ctx, "owner", board.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, lists[1].ID, all[0].ID)
	assert.Equal(t, lists[0].ID, all[1].ID)
}

func TestAddMember_OwnerOnly(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	board, _, _ := seedBoard(t, svc)

	_, err := svc.AddMember(ctx, "owner", board.ID, "bob", v1.RoleEditor)
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, "bob", board.ID, "carol", v1.RoleEditor)
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
}

func TestSearchMembers(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	board, _, _ := seedBoard(t, svc)

	_, err := svc.AddMember(ctx, "owner", board.ID, "alice", v1.RoleEditor)
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, "owner", board.ID, "alicia", v1.RoleViewer)
	require.NoError(t, err)

	matches, err := svc.SearchMembers(ctx, "owner", board.ID, "ALIC")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	matches, err = svc.SearchMembers(ctx, "owner", board.ID, "alicia")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "alicia", matches[0].UserID)
}

func TestRemoveMember_OwnerCannotBeRemoved(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	board, _, _ := seedBoard(t, svc)

	err := svc.RemoveMember(ctx, "owner", board.ID, "owner")
	require.Error(t, err)
	assert.Equal(t, 400, errors.GetHTTPStatus(err))
}
