// Package service provides board business logic: membership checks,
// ordered mutations, activity recording, and event publication.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/board/repository"
	"github.com/cardwall/cardwall/internal/common/errors"
	"github.com/cardwall/cardwall/internal/common/logger"
	"github.com/cardwall/cardwall/internal/events"
	"github.com/cardwall/cardwall/internal/events/bus"
)

// Service provides board business logic
type Service struct {
	repo     repository.Repository
	eventBus bus.EventBus
	logger   *logger.Logger
}

// NewService creates a new board service
func NewService(repo repository.Repository, eventBus bus.EventBus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   log,
	}
}

// requireMember verifies the user belongs to the board, returning their
// membership. A non-member gets Forbidden rather than NotFound so board
// existence is not leaked through the error code.
func (s *Service) requireMember(ctx context.Context, boardID, userID string) (*models.Member, error) {
	member, err := s.repo.GetMember(ctx, boardID, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Forbidden("user is not a member of this board")
		}
		return nil, err
	}
	return member, nil
}

// requireEditor verifies the user may mutate the board's contents.
func (s *Service) requireEditor(ctx context.Context, boardID, userID string) error {
	member, err := s.requireMember(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if !member.Role.CanEdit() {
		return errors.Forbidden("viewer role cannot modify the board")
	}
	return nil
}

// requireOwner verifies the user owns the board.
func (s *Service) requireOwner(ctx context.Context, boardID, userID string) error {
	member, err := s.requireMember(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if member.Role != v1.RoleOwner {
		return errors.Forbidden("only the board owner may perform this action")
	}
	return nil
}

// recordActivity appends an activity entry; failures are logged, not fatal,
// since the mutation itself has already been persisted.
func (s *Service) recordActivity(ctx context.Context, boardID, actorID, verb, taskID, detail string) {
	activity := &models.Activity{
		BoardID: boardID,
		ActorID: actorID,
		Verb:    verb,
		TaskID:  taskID,
		Detail:  detail,
	}
	if err := s.repo.RecordActivity(ctx, activity); err != nil {
		s.logger.Error("failed to record activity",
			zap.String("board_id", boardID),
			zap.String("verb", verb),
			zap.Error(err))
		return
	}
	s.publishEvent(ctx, events.ActivityRecorded, boardID, map[string]interface{}{
		"board_id": boardID,
		"activity": activity.ToAPI(),
	})
}

// publishEvent publishes an event to the bus, tagging it with the board it
// concerns so the websocket gateway can route it to board subscribers.
func (s *Service) publishEvent(ctx context.Context, eventType, boardID string, data map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["board_id"]; !ok {
		data["board_id"] = boardID
	}
	event := bus.NewEvent(eventType, "board-service", data)
	if err := s.eventBus.Publish(ctx, eventType, event); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("board_id", boardID),
			zap.Error(err))
	}
}

// Board operations

// CreateBoard creates a board and enrolls the creator as its owner.
func (s *Service) CreateBoard(ctx context.Context, userID, name, description string) (*models.Board, error) {
	if name == "" {
		return nil, errors.ValidationError("name", "cannot be empty")
	}

	board := &models.Board{
		Name:        name,
		Description: description,
		OwnerID:     userID,
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		return nil, err
	}

	member := &models.Member{
		BoardID: board.ID,
		UserID:  userID,
		Role:    v1.RoleOwner,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		// Roll back the orphaned board so the failure is clean.
		if delErr := s.repo.DeleteBoard(ctx, board.ID); delErr != nil {
			s.logger.Error("failed to remove board after membership failure",
				zap.String("board_id", board.ID),
				zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("board created",
		zap.String("board_id", board.ID),
		zap.String("owner_id", userID))

	s.recordActivity(ctx, board.ID, userID, "board.created", "", board.Name)
	s.publishEvent(ctx, events.BoardCreated, board.ID, map[string]interface{}{
		"board": board.ToAPI(),
	})
	return board, nil
}

// GetBoard returns a board the user is a member of.
func (s *Service) GetBoard(ctx context.Context, userID, boardID string) (*models.Board, error) {
	if _, err := s.requireMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetBoard(ctx, boardID)
}

// ListBoards returns every board the user belongs to.
func (s *Service) ListBoards(ctx context.Context, userID string) ([]*models.Board, error) {
	return s.repo.ListBoardsByUser(ctx, userID)
}

// UpdateBoard updates a board's name and description.
func (s *Service) UpdateBoard(ctx context.Context, userID, boardID, name, description string) (*models.Board, error) {
	if err := s.requireEditor(ctx, boardID, userID); err != nil {
		return nil, err
	}
	board, err := s.repo.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if name != "" {
		board.Name = name
	}
	board.Description = description
	if err := s.repo.UpdateBoard(ctx, board); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, boardID, userID, "board.updated", "", board.Name)
	s.publishEvent(ctx, events.BoardUpdated, boardID, map[string]interface{}{
		"board": board.ToAPI(),
	})
	return board, nil
}

// DeleteBoard removes a board and everything it contains. Owner only.
func (s *Service) DeleteBoard(ctx context.Context, userID, boardID string) error {
	if err := s.requireOwner(ctx, boardID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteBoard(ctx, boardID); err != nil {
		return err
	}

	s.logger.Info("board deleted",
		zap.String("board_id", boardID),
		zap.String("user_id", userID))

	s.publishEvent(ctx, events.BoardDeleted, boardID, nil)
	return nil
}

// GetBoardSnapshot assembles the complete state of a board: the board, its
// lists in position order, and each list's tasks in position order. This is
// the payload clients use for initial load and for resynchronizing after a
// failed move.
func (s *Service) GetBoardSnapshot(ctx context.Context, userID, boardID string) (*v1.BoardSnapshot, error) {
	if _, err := s.requireMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	board, err := s.repo.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	lists, err := s.repo.ListLists(ctx, boardID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasks(ctx, boardID)
	if err != nil {
		return nil, err
	}

	tasksByList := make(map[string][]v1.Task, len(lists))
	for _, task := range tasks {
		tasksByList[task.ListID] = append(tasksByList[task.ListID], task.ToAPI())
	}

	snapshot := &v1.BoardSnapshot{
		Board: board.ToAPI(),
		Lists: make([]v1.ListSnapshot, 0, len(lists)),
	}
	for _, list := range lists {
		listTasks := tasksByList[list.ID]
		if listTasks == nil {
			listTasks = []v1.Task{}
		}
		snapshot.Lists = append(snapshot.Lists, v1.ListSnapshot{
			List:  list.ToAPI(),
			Tasks: listTasks,
		})
	}
	return snapshot, nil
}

// ListActivity returns the board's most recent activity entries, newest first.
func (s *Service) ListActivity(ctx context.Context, userID, boardID string, limit int) ([]*models.Activity, error) {
	if _, err := s.requireMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListActivity(ctx, boardID, limit)
}

// timestamp is a helper for event payloads.
func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
