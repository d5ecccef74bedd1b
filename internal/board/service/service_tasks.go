package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/common/errors"
	"github.com/cardwall/cardwall/internal/events"
)

// CreateTask appends a new task at the end of a list.
func (s *Service) CreateTask(ctx context.Context, userID, listID, title, description string) (*models.Task, error) {
	if title == "" {
		return nil, errors.ValidationError("title", "cannot be empty")
	}
	list, err := s.repo.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditor(ctx, list.BoardID, userID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListTasksByList(ctx, listID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		BoardID:     list.BoardID,
		ListID:      listID,
		Title:       title,
		Description: description,
		Position:    len(existing),
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, list.BoardID, userID, "task.created", task.ID, task.Title)
	s.publishEvent(ctx, events.TaskCreated, list.BoardID, map[string]interface{}{
		"task": task.ToAPI(),
	})
	return task, nil
}

// GetTask returns a task the user may see.
func (s *Service) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, task.BoardID, userID); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask updates a task's title and description. Position and list are
// changed through MoveTask only.
func (s *Service) UpdateTask(ctx context.Context, userID, taskID, title, description string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditor(ctx, task.BoardID, userID); err != nil {
		return nil, err
	}

	if title != "" {
		task.Title = title
	}
	task.Description = description
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, task.BoardID, userID, "task.updated", task.ID, task.Title)
	s.publishEvent(ctx, events.TaskUpdated, task.BoardID, map[string]interface{}{
		"task": task.ToAPI(),
	})
	return task, nil
}

// DeleteTask removes a task and renumbers its list so positions stay
// contiguous.
func (s *Service) DeleteTask(ctx context.Context, userID, taskID string) error {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.requireEditor(ctx, task.BoardID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		return err
	}

	if err := s.renumberList(ctx, task.ListID); err != nil {
		s.logger.Error("failed to renumber list after task delete",
			zap.String("list_id", task.ListID),
			zap.Error(err))
	}

	s.recordActivity(ctx, task.BoardID, userID, "task.deleted", taskID, task.Title)
	s.publishEvent(ctx, events.TaskDeleted, task.BoardID, map[string]interface{}{
		"task_id": taskID,
		"list_id": task.ListID,
	})
	return nil
}

// ListTasksByList returns the list's tasks in position order.
func (s *Service) ListTasksByList(ctx context.Context, userID, listID string) ([]*models.Task, error) {
	list, err := s.repo.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, list.BoardID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListTasksByList(ctx, listID)
}

// MoveTask moves a task to a position within a destination list, which may
// be its current list. The requested position is clamped to the destination's
// valid range, both affected lists are renumbered to contiguous 0..n-1
// positions, and the renumbering is persisted atomically. Concurrent moves of
// the same task resolve last-write-wins: the final persisted state reflects
// whichever request committed last, and every committed state is consistent.
//
// origin identifies the requesting client and is echoed in the broadcast
// event so that client can recognize and skip its own move.
func (s *Service) MoveTask(ctx context.Context, userID, taskID, toListID string, position int, origin string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditor(ctx, task.BoardID, userID); err != nil {
		return nil, err
	}

	dest, err := s.repo.GetList(ctx, toListID)
	if err != nil {
		return nil, err
	}
	if dest.BoardID != task.BoardID {
		return nil, errors.BadRequest("destination list belongs to a different board")
	}

	fromListID := task.ListID
	sameList := fromListID == toListID

	destTasks, err := s.repo.ListTasksByList(ctx, toListID)
	if err != nil {
		return nil, err
	}

	// Work on the destination ordering with the moved task excluded, so the
	// insertion index is computed against the list as it will look without it.
	ordered := make([]*models.Task, 0, len(destTasks)+1)
	for _, t := range destTasks {
		if t.ID != taskID {
			ordered = append(ordered, t)
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(ordered) {
		position = len(ordered)
	}
	task.ListID = toListID
	ordered = append(ordered[:position], append([]*models.Task{task}, ordered[position:]...)...)

	placements := make([]models.TaskPlacement, 0, len(ordered))
	for i, t := range ordered {
		placements = append(placements, models.TaskPlacement{TaskID: t.ID, ListID: toListID, Position: i})
	}

	// A cross-list move leaves a hole in the source list; renumber it in the
	// same atomic batch.
	if !sameList {
		srcTasks, err := s.repo.ListTasksByList(ctx, fromListID)
		if err != nil {
			return nil, err
		}
		i := 0
		for _, t := range srcTasks {
			if t.ID == taskID {
				continue
			}
			placements = append(placements, models.TaskPlacement{TaskID: t.ID, ListID: fromListID, Position: i})
			i++
		}
	}

	if err := s.repo.UpdateTaskPositions(ctx, placements); err != nil {
		return nil, err
	}
	task.Position = position

	s.logger.Debug("task moved",
		zap.String("task_id", taskID),
		zap.String("from_list_id", fromListID),
		zap.String("to_list_id", toListID),
		zap.Int("position", position))

	detail := fmt.Sprintf("moved to position %d", position)
	if !sameList {
		detail = fmt.Sprintf("moved to list %q at position %d", dest.Title, position)
	}
	s.recordActivity(ctx, task.BoardID, userID, "task.moved", taskID, detail)

	moved := v1.TaskMovedEvent{
		TaskID:     taskID,
		BoardID:    task.BoardID,
		FromListID: fromListID,
		ToListID:   toListID,
		Position:   position,
		Origin:     origin,
	}
	s.publishEvent(ctx, events.TaskMoved, task.BoardID, map[string]interface{}{
		"task_id":      moved.TaskID,
		"from_list_id": moved.FromListID,
		"to_list_id":   moved.ToListID,
		"position":     moved.Position,
		"origin":       moved.Origin,
		"moved_at":     timestamp(task.UpdatedAt),
	})
	return task, nil
}

// renumberList rewrites positions 0..n-1 over the list's current order.
func (s *Service) renumberList(ctx context.Context, listID string) error {
	tasks, err := s.repo.ListTasksByList(ctx, listID)
	if err != nil {
		return err
	}
	placements := make([]models.TaskPlacement, 0, len(tasks))
	for i, t := range tasks {
		placements = append(placements, models.TaskPlacement{TaskID: t.ID, ListID: listID, Position: i})
	}
	return s.repo.UpdateTaskPositions(ctx, placements)
}
