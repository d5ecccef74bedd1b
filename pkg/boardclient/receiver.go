package boardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"
	ws "github.com/cardwall/cardwall/pkg/ws"
)

// Receiver consumes a board's real-time event stream and reconciles task
// moves from other clients into the local store. Events whose origin equals
// this client's own origin are echoes of moves already applied optimistically
// and are skipped.
type Receiver struct {
	store  *Store
	origin string
	conn   *gorillaws.Conn
	logger *zap.Logger
}

// Subscribe dials the gateway, subscribes to the board's event channel, and
// returns a receiver ready to Listen. origin must match the origin the REST
// client sends with moves.
func Subscribe(ctx context.Context, wsURL, boardID, userID, origin string, log *zap.Logger) (*Receiver, error) {
	header := http.Header{}
	header.Set("X-User-ID", userID)

	conn, resp, err := gorillaws.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", wsURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	msg, err := ws.NewRequest(uuid.New().String(), ws.ActionBoardSubscribe, ws.SubscribePayload{BoardID: boardID})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteJSON(msg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to board %s: %w", boardID, err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &Receiver{
		origin: origin,
		conn:   conn,
		logger: log.With(zap.String("component", "board_receiver"), zap.String("board_id", boardID)),
	}, nil
}

// AttachStore sets the store remote moves are applied to.
func (r *Receiver) AttachStore(store *Store) {
	r.store = store
}

// Listen reads notifications until the connection closes or ctx is
// cancelled. Malformed frames are logged and skipped; a read error ends the
// loop. The caller decides whether to redial.
func (r *Receiver) Listen(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		r.handleFrame(data)
	}
}

// handleFrame decodes every message in one frame. The gateway's write pump
// coalesces queued notifications into a single newline-separated frame, so a
// frame may carry several messages; each is applied in order. A decode error
// abandons the rest of the frame.
func (r *Receiver) handleFrame(data []byte) {
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var msg ws.Message
		if err := dec.Decode(&msg); err != nil {
			if err != io.EOF {
				r.logger.Warn("skipping malformed frame", zap.Error(err))
			}
			return
		}
		r.handle(&msg)
	}
}

// handle applies one notification to the store.
func (r *Receiver) handle(msg *ws.Message) {
	if msg.Type != ws.MessageTypeNotification {
		return
	}
	if msg.Action != ws.ActionTaskMoved {
		// Other board events carry no ordering to reconcile here; the
		// application layer refetches when it cares about them.
		return
	}

	var event v1.TaskMovedEvent
	if err := msg.ParsePayload(&event); err != nil {
		r.logger.Warn("skipping undecodable task.moved payload", zap.Error(err))
		return
	}

	if event.Origin != "" && event.Origin == r.origin {
		// Echo of this client's own move; local state already reflects it.
		return
	}
	if r.store == nil {
		return
	}

	changed := r.store.ApplyRemoteMove(event.TaskID, event.ToListID, event.Position)
	r.logger.Debug("remote move applied",
		zap.String("task_id", event.TaskID),
		zap.String("to_list_id", event.ToListID),
		zap.Int("position", event.Position),
		zap.Bool("changed", changed))
}

// Close closes the underlying connection.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
