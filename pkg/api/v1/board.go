// Package v1 defines the wire types shared by the Cardwall server and clients.
package v1

import "time"

// Role represents a member's permission level on a board.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// CanEdit reports whether the role permits board mutations.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleEditor
}

// Board represents a Kanban board.
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// List is an ordered column of tasks within a board.
type List struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a unit of work with a position within its owning list.
type Task struct {
	ID          string    `json:"id"`
	BoardID     string    `json:"board_id"`
	ListID      string    `json:"list_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member represents a user's membership on a board.
type Member struct {
	BoardID string    `json:"board_id"`
	UserID  string    `json:"user_id"`
	Role    Role      `json:"role"`
	AddedAt time.Time `json:"added_at"`
}

// Activity is a single entry in a board's activity history.
type Activity struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	ActorID   string    `json:"actor_id"`
	Verb      string    `json:"verb"`
	TaskID    string    `json:"task_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListSnapshot is a list together with its ordered tasks.
type ListSnapshot struct {
	List
	Tasks []Task `json:"tasks"`
}

// BoardSnapshot is the complete state of a board: the board, its lists in
// order, and each list's tasks in order. Used for full-board fetches and
// as the client's resynchronization backstop.
type BoardSnapshot struct {
	Board Board          `json:"board"`
	Lists []ListSnapshot `json:"lists"`
}

// TaskMovedEvent is the broadcast payload for a persisted task move.
// Origin identifies the client whose request produced the move so
// subscribers can ignore echoes of their own optimistic edits.
type TaskMovedEvent struct {
	TaskID     string `json:"task_id"`
	BoardID    string `json:"board_id"`
	FromListID string `json:"from_list_id"`
	ToListID   string `json:"to_list_id"`
	Position   int    `json:"position"`
	Origin     string `json:"origin,omitempty"`
}
