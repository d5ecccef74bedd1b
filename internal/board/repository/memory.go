package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/common/errors"
)

// MemoryRepository provides in-memory board storage operations
type MemoryRepository struct {
	boards     map[string]*models.Board
	lists      map[string]*models.List
	tasks      map[string]*models.Task
	members    map[string]map[string]*models.Member // boardID -> userID -> member
	activities map[string][]*models.Activity        // boardID -> newest last
	mu         sync.RWMutex
}

// Ensure MemoryRepository implements Repository interface
var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new in-memory board repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		boards:     make(map[string]*models.Board),
		lists:      make(map[string]*models.List),
		tasks:      make(map[string]*models.Task),
		members:    make(map[string]map[string]*models.Member),
		activities: make(map[string][]*models.Activity),
	}
}

// Close is a no-op for in-memory repository
func (r *MemoryRepository) Close() error {
	return nil
}

// Board operations

// CreateBoard creates a new board
func (r *MemoryRepository) CreateBoard(ctx context.Context, board *models.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if board.ID == "" {
		board.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	board.CreatedAt = now
	board.UpdatedAt = now

	r.boards[board.ID] = board
	return nil
}

// GetBoard retrieves a board by ID
func (r *MemoryRepository) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	board, ok := r.boards[id]
	if !ok {
		return nil, errors.NotFound("board", id)
	}
	return board, nil
}

// UpdateBoard updates an existing board
func (r *MemoryRepository) UpdateBoard(ctx context.Context, board *models.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.boards[board.ID]; !ok {
		return errors.NotFound("board", board.ID)
	}
	board.UpdatedAt = time.Now().UTC()
	r.boards[board.ID] = board
	return nil
}

// DeleteBoard deletes a board and everything it contains
func (r *MemoryRepository) DeleteBoard(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.boards[id]; !ok {
		return errors.NotFound("board", id)
	}
	delete(r.boards, id)
	for listID, list := range r.lists {
		if list.BoardID == id {
			delete(r.lists, listID)
		}
	}
	for taskID, task := range r.tasks {
		if task.BoardID == id {
			delete(r.tasks, taskID)
		}
	}
	delete(r.members, id)
	delete(r.activities, id)
	return nil
}

// ListBoardsByUser returns all boards the user is a member of
func (r *MemoryRepository) ListBoardsByUser(ctx context.Context, userID string) ([]*models.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Board, 0)
	for boardID, members := range r.members {
		if _, ok := members[userID]; !ok {
			continue
		}
		if board, ok := r.boards[boardID]; ok {
			result = append(result, board)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// List operations

// CreateList creates a new list
func (r *MemoryRepository) CreateList(ctx context.Context, list *models.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	r.lists[list.ID] = list
	return nil
}

// GetList retrieves a list by ID
func (r *MemoryRepository) GetList(ctx context.Context, id string) (*models.List, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list, ok := r.lists[id]
	if !ok {
		return nil, errors.NotFound("list", id)
	}
	return list, nil
}

// UpdateList updates an existing list
func (r *MemoryRepository) UpdateList(ctx context.Context, list *models.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lists[list.ID]; !ok {
		return errors.NotFound("list", list.ID)
	}
	list.UpdatedAt = time.Now().UTC()
	r.lists[list.ID] = list
	return nil
}

// DeleteList deletes a list and its tasks
func (r *MemoryRepository) DeleteList(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lists[id]; !ok {
		return errors.NotFound("list", id)
	}
	delete(r.lists, id)
	for taskID, task := range r.tasks {
		if task.ListID == id {
			delete(r.tasks, taskID)
		}
	}
	return nil
}

// ListLists returns all lists for a board ordered by position
func (r *MemoryRepository) ListLists(ctx context.Context, boardID string) ([]*models.List, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.List, 0)
	for _, list := range r.lists {
		if list.BoardID == boardID {
			result = append(result, list)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// UpdateListPositions applies list placements atomically
func (r *MemoryRepository) UpdateListPositions(ctx context.Context, boardID string, placements []models.ListPlacement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range placements {
		if _, ok := r.lists[p.ListID]; !ok {
			return errors.NotFound("list", p.ListID)
		}
	}
	now := time.Now().UTC()
	for _, p := range placements {
		list := r.lists[p.ListID]
		list.Position = p.Position
		list.UpdatedAt = now
	}
	return nil
}

// Task operations

// CreateTask creates a new task
func (r *MemoryRepository) CreateTask(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.tasks[task.ID] = task
	return nil
}

// GetTask retrieves a task by ID
func (r *MemoryRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, errors.NotFound("task", id)
	}
	return task, nil
}

// UpdateTask updates an existing task
func (r *MemoryRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return errors.NotFound("task", task.ID)
	}
	task.UpdatedAt = time.Now().UTC()
	r.tasks[task.ID] = task
	return nil
}

// DeleteTask deletes a task by ID
func (r *MemoryRepository) DeleteTask(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return errors.NotFound("task", id)
	}
	delete(r.tasks, id)
	return nil
}

// ListTasks returns all tasks for a board
func (r *MemoryRepository) ListTasks(ctx context.Context, boardID string) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Task, 0)
	for _, task := range r.tasks {
		if task.BoardID == boardID {
			result = append(result, task)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ListID != result[j].ListID {
			return result[i].ListID < result[j].ListID
		}
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// ListTasksByList returns all tasks in a list ordered by position
func (r *MemoryRepository) ListTasksByList(ctx context.Context, listID string) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Task, 0)
	for _, task := range r.tasks {
		if task.ListID == listID {
			result = append(result, task)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// UpdateTaskPositions applies task placements atomically
func (r *MemoryRepository) UpdateTaskPositions(ctx context.Context, placements []models.TaskPlacement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range placements {
		if _, ok := r.tasks[p.TaskID]; !ok {
			return errors.NotFound("task", p.TaskID)
		}
	}
	now := time.Now().UTC()
	for _, p := range placements {
		task := r.tasks[p.TaskID]
		task.ListID = p.ListID
		task.Position = p.Position
		task.UpdatedAt = now
	}
	return nil
}

// Member operations

// AddMember adds a member to a board
func (r *MemoryRepository) AddMember(ctx context.Context, member *models.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[member.BoardID]; !ok {
		r.members[member.BoardID] = make(map[string]*models.Member)
	}
	if _, ok := r.members[member.BoardID][member.UserID]; ok {
		return errors.Conflict("user is already a member of this board")
	}
	member.AddedAt = time.Now().UTC()
	r.members[member.BoardID][member.UserID] = member
	return nil
}

// GetMember retrieves a board member
func (r *MemoryRepository) GetMember(ctx context.Context, boardID, userID string) (*models.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if members, ok := r.members[boardID]; ok {
		if member, ok := members[userID]; ok {
			return member, nil
		}
	}
	return nil, errors.NotFound("member", userID)
}

// RemoveMember removes a member from a board
func (r *MemoryRepository) RemoveMember(ctx context.Context, boardID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.members[boardID]; ok {
		if _, ok := members[userID]; ok {
			delete(members, userID)
			return nil
		}
	}
	return errors.NotFound("member", userID)
}

// ListMembers returns all members of a board
func (r *MemoryRepository) ListMembers(ctx context.Context, boardID string) ([]*models.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Member, 0)
	for _, member := range r.members[boardID] {
		result = append(result, member)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.Compare(result[i].UserID, result[j].UserID) < 0
	})
	return result, nil
}

// Activity operations

// RecordActivity appends an activity entry for a board
func (r *MemoryRepository) RecordActivity(ctx context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	activity.CreatedAt = time.Now().UTC()
	r.activities[activity.BoardID] = append(r.activities[activity.BoardID], activity)
	return nil
}

// ListActivity returns the most recent activity entries, newest first
func (r *MemoryRepository) ListActivity(ctx context.Context, boardID string, limit int) ([]*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.activities[boardID]
	result := make([]*models.Activity, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		result = append(result, entries[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
