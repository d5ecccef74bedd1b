// Package api provides HTTP handlers for the board service API.
package api

import v1 "github.com/cardwall/cardwall/pkg/api/v1"

// CreateBoardRequest for creating a board
type CreateBoardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdateBoardRequest for updating a board
type UpdateBoardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateListRequest for creating a list
type CreateListRequest struct {
	Title string `json:"title" binding:"required"`
}

// UpdateListRequest for renaming a list
type UpdateListRequest struct {
	Title string `json:"title" binding:"required"`
}

// MoveListRequest for repositioning a list within its board
type MoveListRequest struct {
	Position int `json:"position"`
}

// CreateTaskRequest for creating a task
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// UpdateTaskRequest for updating a task
type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MoveTaskRequest for moving a task to a list position. Origin identifies
// the requesting client; it is echoed in the broadcast event so the client
// can skip its own move.
type MoveTaskRequest struct {
	ListID   string `json:"list_id" binding:"required"`
	Position int    `json:"position"`
	Origin   string `json:"origin"`
}

// AddMemberRequest for adding a member to a board
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// Response types

// BoardsListResponse for listing boards
type BoardsListResponse struct {
	Boards []v1.Board `json:"boards"`
	Total  int        `json:"total"`
}

// ListsListResponse for listing a board's lists
type ListsListResponse struct {
	Lists []v1.List `json:"lists"`
	Total int       `json:"total"`
}

// TasksListResponse for listing tasks
type TasksListResponse struct {
	Tasks []v1.Task `json:"tasks"`
	Total int       `json:"total"`
}

// MembersListResponse for listing board members
type MembersListResponse struct {
	Members []v1.Member `json:"members"`
	Total   int         `json:"total"`
}

// ActivityListResponse for listing a board's activity history
type ActivityListResponse struct {
	Activities []v1.Activity `json:"activities"`
	Total      int           `json:"total"`
}
