package service

import (
	"context"
	"strings"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/common/errors"
	"github.com/cardwall/cardwall/internal/events"
)

// AddMember adds a user to a board with the given role. Owner only. The
// owner role is granted at board creation and cannot be assigned here.
func (s *Service) AddMember(ctx context.Context, actorID, boardID, userID string, role v1.Role) (*models.Member, error) {
	if userID == "" {
		return nil, errors.ValidationError("user_id", "cannot be empty")
	}
	switch role {
	case v1.RoleEditor, v1.RoleViewer:
	case v1.RoleOwner:
		return nil, errors.BadRequest("owner role cannot be granted to additional members")
	default:
		return nil, errors.ValidationError("role", "must be 'editor' or 'viewer'")
	}
	if err := s.requireOwner(ctx, boardID, actorID); err != nil {
		return nil, err
	}

	member := &models.Member{
		BoardID: boardID,
		UserID:  userID,
		Role:    role,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, boardID, actorID, "member.added", "", userID)
	s.publishEvent(ctx, events.MemberAdded, boardID, map[string]interface{}{
		"member": member.ToAPI(),
	})
	return member, nil
}

// RemoveMember removes a user from a board. Owner only, and the owner
// cannot remove themselves since every board needs an owner.
func (s *Service) RemoveMember(ctx context.Context, actorID, boardID, userID string) error {
	if err := s.requireOwner(ctx, boardID, actorID); err != nil {
		return err
	}
	if userID == actorID {
		return errors.BadRequest("the board owner cannot be removed")
	}
	if err := s.repo.RemoveMember(ctx, boardID, userID); err != nil {
		return err
	}

	s.recordActivity(ctx, boardID, actorID, "member.removed", "", userID)
	s.publishEvent(ctx, events.MemberRemoved, boardID, map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// ListMembers returns all members of a board.
func (s *Service) ListMembers(ctx context.Context, actorID, boardID string) ([]*models.Member, error) {
	if _, err := s.requireMember(ctx, boardID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, boardID)
}

// SearchMembers returns board members whose user ID contains the query,
// case-insensitively. An empty query matches everyone.
func (s *Service) SearchMembers(ctx context.Context, actorID, boardID, query string) ([]*models.Member, error) {
	members, err := s.ListMembers(ctx, actorID, boardID)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return members, nil
	}
	query = strings.ToLower(query)
	matched := make([]*models.Member, 0, len(members))
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.UserID), query) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}
