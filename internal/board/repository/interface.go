package repository

import (
	"context"

	"github.com/cardwall/cardwall/internal/board/models"
)

// Repository defines the interface for board storage operations
type Repository interface {
	// Board operations
	CreateBoard(ctx context.Context, board *models.Board) error
	GetBoard(ctx context.Context, id string) (*models.Board, error)
	UpdateBoard(ctx context.Context, board *models.Board) error
	DeleteBoard(ctx context.Context, id string) error
	ListBoardsByUser(ctx context.Context, userID string) ([]*models.Board, error)

	// List operations
	CreateList(ctx context.Context, list *models.List) error
	GetList(ctx context.Context, id string) (*models.List, error)
	UpdateList(ctx context.Context, list *models.List) error
	DeleteList(ctx context.Context, id string) error
	ListLists(ctx context.Context, boardID string) ([]*models.List, error)
	UpdateListPositions(ctx context.Context, boardID string, placements []models.ListPlacement) error

	// Task operations
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, boardID string) ([]*models.Task, error)
	ListTasksByList(ctx context.Context, listID string) ([]*models.Task, error)
	// UpdateTaskPositions applies the renumbering produced by a single move
	// atomically: either every placement is written or none are.
	UpdateTaskPositions(ctx context.Context, placements []models.TaskPlacement) error

	// Member operations
	AddMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, boardID, userID string) (*models.Member, error)
	RemoveMember(ctx context.Context, boardID, userID string) error
	ListMembers(ctx context.Context, boardID string) ([]*models.Member, error)

	// Activity operations
	RecordActivity(ctx context.Context, activity *models.Activity) error
	// ListActivity returns entries newest first. A limit of zero or less
	// returns the full history.
	ListActivity(ctx context.Context, boardID string, limit int) ([]*models.Activity, error)

	// Close closes the repository (for database connections)
	Close() error
}
