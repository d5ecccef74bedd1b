package boardclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"
	ws "github.com/cardwall/cardwall/pkg/ws"
)

func setupReceiver(t *testing.T) (*Receiver, *Store) {
	t.Helper()
	store := NewStore(testSnapshot())
	r := &Receiver{
		store:  store,
		origin: "origin-self",
		logger: zap.NewNop(),
	}
	return r, store
}

func movedNotification(t *testing.T, event v1.TaskMovedEvent) *ws.Message {
	t.Helper()
	msg, err := ws.NewNotification(ws.ActionTaskMoved, event)
	require.NoError(t, err)
	return msg
}

func TestReceiver_AppliesRemoteMove(t *testing.T) {
	r, store := setupReceiver(t)

	r.handle(movedNotification(t, v1.TaskMovedEvent{
		TaskID:     "t2",
		BoardID:    "board-1",
		FromListID: "list-a",
		ToListID:   "list-b",
		Position:   0,
		Origin:     "origin-other",
	}))

	assert.Equal(t, []string{"t2"}, taskOrder(t, store, "list-b"))
}

func TestReceiver_SkipsSelfEcho(t *testing.T) {
	r, store := setupReceiver(t)

	r.handle(movedNotification(t, v1.TaskMovedEvent{
		TaskID:   "t2",
		ToListID: "list-b",
		Position: 0,
		Origin:   "origin-self",
	}))

	// The echo of our own move must not disturb local state.
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, store, "list-a"))
	assert.Empty(t, taskOrder(t, store, "list-b"))
}

func TestReceiver_DuplicateEventIsIdempotent(t *testing.T) {
	r, store := setupReceiver(t)

	event := v1.TaskMovedEvent{TaskID: "t2", ToListID: "list-b", Position: 0, Origin: "origin-other"}
	r.handle(movedNotification(t, event))
	first := store.Snapshot()
	r.handle(movedNotification(t, event))

	assert.Equal(t, first, store.Snapshot())
}

func TestReceiver_IgnoresOtherMessageTypes(t *testing.T) {
	r, store := setupReceiver(t)

	resp, err := ws.NewResponse("1", ws.ActionBoardSubscribe, map[string]interface{}{"success": true})
	require.NoError(t, err)
	r.handle(resp)

	other, err := ws.NewNotification(ws.ActionTaskCreated, map[string]interface{}{"task_id": "t9"})
	require.NoError(t, err)
	r.handle(other)

	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, store, "list-a"))
}

func TestReceiver_AppliesAllMessagesInCoalescedFrame(t *testing.T) {
	r, store := setupReceiver(t)

	// The gateway's write pump batches queued notifications into one
	// newline-separated text frame; every message in it must be applied.
	first, err := json.Marshal(movedNotification(t, v1.TaskMovedEvent{
		TaskID: "t2", ToListID: "list-b", Position: 0, Origin: "origin-other",
	}))
	require.NoError(t, err)
	second, err := json.Marshal(movedNotification(t, v1.TaskMovedEvent{
		TaskID: "t3", ToListID: "list-b", Position: 1, Origin: "origin-other",
	}))
	require.NoError(t, err)

	frame := append(append(first, '\n'), second...)
	r.handleFrame(frame)

	assert.Equal(t, []string{"t2", "t3"}, taskOrder(t, store, "list-b"))
	assert.Equal(t, []string{"t1"}, taskOrder(t, store, "list-a"))
}

func TestReceiver_CoalescedFrameWithTrailingGarbage(t *testing.T) {
	r, store := setupReceiver(t)

	valid, err := json.Marshal(movedNotification(t, v1.TaskMovedEvent{
		TaskID: "t2", ToListID: "list-b", Position: 0, Origin: "origin-other",
	}))
	require.NoError(t, err)

	frame := append(append(valid, '\n'), []byte("{not json")...)
	r.handleFrame(frame)

	// Messages before the decode error still apply.
	assert.Equal(t, []string{"t2"}, taskOrder(t, store, "list-b"))
}

func TestReceiver_SkipsUndecodablePayload(t *testing.T) {
	r, store := setupReceiver(t)

	r.handle(&ws.Message{
		Type:    ws.MessageTypeNotification,
		Action:  ws.ActionTaskMoved,
		Payload: json.RawMessage(`{"position": "not-a-number"}`),
	})

	assert.Equal(t, []string{"t1", "t2", "t3"}, taskOrder(t, store, "list-a"))
}
