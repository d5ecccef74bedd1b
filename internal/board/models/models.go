// Package models defines the internal domain types for boards, lists, and tasks.
package models

import (
	"time"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"
)

// Board represents a Kanban board
type Board struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// List represents an ordered column of tasks within a board
type List struct {
	ID        string    `json:"id" db:"id"`
	BoardID   string    `json:"board_id" db:"board_id"`
	Title     string    `json:"title" db:"title"`
	Position  int       `json:"position" db:"position"` // Order within board
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Task represents a task in the database
type Task struct {
	ID          string    `json:"id" db:"id"`
	BoardID     string    `json:"board_id" db:"board_id"`
	ListID      string    `json:"list_id" db:"list_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Position    int       `json:"position" db:"position"` // Order within list
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Member represents a user's membership on a board
type Member struct {
	BoardID string    `json:"board_id" db:"board_id"`
	UserID  string    `json:"user_id" db:"user_id"`
	Role    v1.Role   `json:"role" db:"role"`
	AddedAt time.Time `json:"added_at" db:"added_at"`
}

// Activity is an append-only record of a board mutation
type Activity struct {
	ID        string    `json:"id" db:"id"`
	BoardID   string    `json:"board_id" db:"board_id"`
	ActorID   string    `json:"actor_id" db:"actor_id"`
	Verb      string    `json:"verb" db:"verb"`
	TaskID    string    `json:"task_id,omitempty" db:"task_id"`
	Detail    string    `json:"detail,omitempty" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TaskPlacement assigns a task to a list at a position. A slice of
// placements describes the renumbering produced by a single move and is
// applied atomically by the repository.
type TaskPlacement struct {
	TaskID   string
	ListID   string
	Position int
}

// ListPlacement assigns a list to a position within its board.
type ListPlacement struct {
	ListID   string
	Position int
}

// ToAPI converts an internal Board to its wire type.
func (b *Board) ToAPI() v1.Board {
	return v1.Board{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// ToAPI converts an internal List to its wire type.
func (l *List) ToAPI() v1.List {
	return v1.List{
		ID:        l.ID,
		BoardID:   l.BoardID,
		Title:     l.Title,
		Position:  l.Position,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// ToAPI converts an internal Task to its wire type.
func (t *Task) ToAPI() v1.Task {
	return v1.Task{
		ID:          t.ID,
		BoardID:     t.BoardID,
		ListID:      t.ListID,
		Title:       t.Title,
		Description: t.Description,
		Position:    t.Position,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ToAPI converts an internal Member to its wire type.
func (m *Member) ToAPI() v1.Member {
	return v1.Member{
		BoardID: m.BoardID,
		UserID:  m.UserID,
		Role:    m.Role,
		AddedAt: m.AddedAt,
	}
}

// ToAPI converts an internal Activity to its wire type.
func (a *Activity) ToAPI() v1.Activity {
	return v1.Activity{
		ID:        a.ID,
		BoardID:   a.BoardID,
		ActorID:   a.ActorID,
		Verb:      a.Verb,
		TaskID:    a.TaskID,
		Detail:    a.Detail,
		CreatedAt: a.CreatedAt,
	}
}
