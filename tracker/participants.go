package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

func (s *Service) ListParticipants(ctx context.Context, callerID uuid.UUID) ([]user.User, error) {
	if _, err := s.caller(ctx, callerID); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return users, nil
}

// UpdateRole changes a participant's global role. Owners and co-owners may
// change roles, but only an owner may grant or take away the owner role, and
// the last owner cannot step down.
func (s *Service) UpdateRole(ctx context.Context, callerID, targetID uuid.UUID, role string) (*user.User, error) {
	newRole, err := permission.ParseRole(role)
	if err != nil {
		return nil, err
	}
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !privileged(caller.Role) {
		s.log.Warn("role change denied", "user_id", caller.ID, "target_id", targetID)
		return nil, forbidden("change roles", "owner or co_owner role required")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("loading participant: %w", err)
	}
	if target == nil {
		return nil, notFound("participant", targetID)
	}
	if target.Role == newRole {
		return target, nil
	}

	touchesOwner := newRole == permission.RoleOwner || target.Role == permission.RoleOwner
	if touchesOwner && caller.Role != permission.RoleOwner {
		return nil, forbidden("change roles", "only an owner may grant or revoke the owner role")
	}
	if target.Role == permission.RoleOwner {
		owners, err := s.countOwners(ctx)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, forbidden("change roles", "cannot demote the last owner")
		}
	}

	if err := s.users.UpdateRole(ctx, target.ID, newRole); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, notFound("participant", targetID)
		}
		return nil, err
	}

	s.publish(EventRoleChanged, caller.ID, RoleChangedEvent{UserID: target.ID, From: target.Role, To: newRole})
	s.log.Info("participant role changed", "user_id", target.ID, "from", target.Role, "to", newRole)
	target.Role = newRole
	return target, nil
}

func (s *Service) countOwners(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing participants: %w", err)
	}
	n := 0
	for _, u := range users {
		if u.Role == permission.RoleOwner {
			n++
		}
	}
	return n, nil
}
