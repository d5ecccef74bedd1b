package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/common/errors"
	"github.com/cardwall/cardwall/internal/events"
)

// CreateList appends a new list at the end of the board.
func (s *Service) CreateList(ctx context.Context, userID, boardID, title string) (*models.List, error) {
	if title == "" {
		return nil, errors.ValidationError("title", "cannot be empty")
	}
	if err := s.requireEditor(ctx, boardID, userID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListLists(ctx, boardID)
	if err != nil {
		return nil, err
	}

	list := &models.List{
		BoardID:  boardID,
		Title:    title,
		Position: len(existing),
	}
	if err := s.repo.CreateList(ctx, list); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, boardID, userID, "list.created", "", list.Title)
	s.publishEvent(ctx, events.ListCreated, boardID, map[string]interface{}{
		"list": list.ToAPI(),
	})
	return list, nil
}

// GetList returns a list the user may see.
func (s *Service) GetList(ctx context.Context, userID, listID string) (*models.List, error) {
	list, err := s.repo.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, list.BoardID, userID); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateList renames a list.
func (s *Service) UpdateList(ctx context.Context, userID, listID, title string) (*models.List, error) {
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

	list.Title = title
	if err := s.repo.UpdateList(ctx, list); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, list.BoardID, userID, "list.updated", "", list.Title)
	s.publishEvent(ctx, events.ListUpdated, list.BoardID, map[string]interface{}{
		"list": list.ToAPI(),
	})
	return list, nil
}

// DeleteList removes a list and its tasks, then renumbers the remaining
// lists so positions stay contiguous.
func (s *Service) DeleteList(ctx context.Context, userID, listID string) error {
	list, err := s.repo.GetList(ctx, listID)
	if err != nil {
		return err
	}
	if err := s.requireEditor(ctx, list.BoardID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteList(ctx, listID); err != nil {
		return err
	}

	if err := s.renumberLists(ctx, list.BoardID); err != nil {
		s.logger.Error("failed to renumber lists after delete",
			zap.String("board_id", list.BoardID),
			zap.Error(err))
	}

	s.recordActivity(ctx, list.BoardID, userID, "list.deleted", "", list.Title)
	s.publishEvent(ctx, events.ListDeleted, list.BoardID, map[string]interface{}{
		"list_id": listID,
	})
	return nil
}

// MoveList moves a list to a new position within its board. The requested
// position is clamped to the valid range and every list is renumbered so
// positions remain contiguous from zero.
func (s *Service) MoveList(ctx context.Context, userID, listID string, position int) (*models.List, error) {
	list, err := s.repo.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditor(ctx, list.BoardID, userID); err != nil {
		return nil, err
	}

	lists, err := s.repo.ListLists(ctx, list.BoardID)
	if err != nil {
		return nil, err
	}

	ordered := make([]*models.List, 0, len(lists))
	for _, l := range lists {
		if l.ID != listID {
			ordered = append(ordered, l)
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(ordered) {
		position = len(ordered)
	}
	ordered = append(ordered[:position], append([]*models.List{list}, ordered[position:]...)...)

	placements := make([]models.ListPlacement, 0, len(ordered))
	for i, l := range ordered {
		placements = append(placements, models.ListPlacement{ListID: l.ID, Position: i})
	}
	if err := s.repo.UpdateListPositions(ctx, list.BoardID, placements); err != nil {
		return nil, err
	}
	list.Position = position

	s.recordActivity(ctx, list.BoardID, userID, "list.moved", "", list.Title)
	s.publishEvent(ctx, events.ListMoved, list.BoardID, map[string]interface{}{
		"list_id":  listID,
		"position": position,
	})
	return list, nil
}

// ListLists returns the board's lists in position order.
func (s *Service) ListLists(ctx context.Context, userID, boardID string) ([]*models.List, error) {
	if _, err := s.requireMember(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListLists(ctx, boardID)
}

// renumberLists rewrites positions 0..n-1 over the board's current order.
func (s *Service) renumberLists(ctx context.Context, boardID string) error {
	lists, err := s.repo.ListLists(ctx, boardID)
	if err != nil {
		return err
	}
	placements := make([]models.ListPlacement, 0, len(lists))
	for i, l := range lists {
		placements = append(placements, models.ListPlacement{ListID: l.ID, Position: i})
	}
	return s.repo.UpdateListPositions(ctx, boardID, placements)
}
