package ws

// Action constants for WebSocket messages
const (
	// Health
	ActionHealthCheck = "health.check"

	// Subscription actions (client -> server)
	ActionBoardSubscribe   = "board.subscribe"
	ActionBoardUnsubscribe = "board.unsubscribe"

	// Notification actions (server -> client)
	ActionBoardUpdated     = "board.updated"
	ActionBoardDeleted     = "board.deleted"
	ActionListCreated      = "list.created"
	ActionListUpdated      = "list.updated"
	ActionListDeleted      = "list.deleted"
	ActionListMoved        = "list.moved"
	ActionTaskCreated      = "task.created"
	ActionTaskUpdated      = "task.updated"
	ActionTaskDeleted      = "task.deleted"
	ActionTaskMoved        = "task.moved"
	ActionMemberAdded      = "member.added"
	ActionMemberRemoved    = "member.removed"
	ActionActivityRecorded = "activity.recorded"
)

// SubscribePayload is the payload for board.subscribe and board.unsubscribe
type SubscribePayload struct {
	BoardID string `json:"board_id"`
}

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeUnauthorized  = "UNAUTHORIZED"
	ErrorCodeForbidden     = "FORBIDDEN"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
