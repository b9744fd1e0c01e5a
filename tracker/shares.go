package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

// ShareExpense grants grantee view or edit access to an expense, replacing
// any earlier grant to the same grantee.
func (s *Service) ShareExpense(ctx context.Context, callerID, expenseID uuid.UUID, granteeEmail, level string) (*sharing.Grant, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	e, err := s.expense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	caps, err := s.capabilities(ctx, caller, e)
	if err != nil {
		return nil, err
	}
	if !caps.Share {
		s.log.Warn("share denied", "user_id", caller.ID, "expense_id", e.ID)
		return nil, forbidden("share expense", "")
	}

	lvl, err := permission.ParseLevel(level)
	if err != nil {
		return nil, &InvalidGrantError{Reason: err.Error()}
	}
	grantee := user.NormalizeEmail(granteeEmail)
	if !user.ValidEmail(grantee) {
		return nil, &InvalidGrantError{Reason: "grantee email is not valid"}
	}
	if grantee == caller.Email {
		return nil, &InvalidGrantError{Reason: "cannot share an expense with yourself"}
	}
	if grantee == e.OwnerEmail {
		return nil, &InvalidGrantError{Reason: "grantee already owns the expense"}
	}

	g, err := s.grants.Upsert(ctx, sharing.New(e.ID, grantee, lvl, caller.ID))
	if err != nil {
		return nil, fmt.Errorf("storing share grant: %w", err)
	}

	s.publish(EventShareGranted, caller.ID, ShareEvent{GrantID: g.ID, ExpenseID: e.ID, Grantee: g.GranteeEmail, Permission: g.Permission})
	return g, nil
}

// ListShares returns the grants on an expense the caller can view.
func (s *Service) ListShares(ctx context.Context, callerID, expenseID uuid.UUID) ([]sharing.Grant, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	e, err := s.expense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	grants, err := s.grants.ListByExpense(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("listing grants: %w", err)
	}
	if !s.resolve(caller, e, sharing.LevelFor(grants, e.ID, caller.Email)).View {
		return nil, forbidden("view shares", "")
	}
	return grants, nil
}

// RemoveShare revokes a grant. Whoever may share the expense may revoke,
// and grantees may drop their own grants.
func (s *Service) RemoveShare(ctx context.Context, callerID, grantID uuid.UUID) error {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return err
	}
	g, err := s.grants.GetByID(ctx, grantID)
	if errors.Is(err, sharing.ErrNotFound) {
		return notFound("share grant", grantID)
	}
	if err != nil {
		return fmt.Errorf("loading share grant: %w", err)
	}

	if g.GranteeEmail != caller.Email {
		e, err := s.expense(ctx, g.ExpenseID)
		if err != nil {
			return err
		}
		caps, err := s.capabilities(ctx, caller, e)
		if err != nil {
			return err
		}
		if !caps.Share {
			s.log.Warn("unshare denied", "user_id", caller.ID, "grant_id", g.ID)
			return forbidden("revoke share", "")
		}
	}

	if err := s.grants.Delete(ctx, g.ID); err != nil {
		if errors.Is(err, sharing.ErrNotFound) {
			return notFound("share grant", grantID)
		}
		return err
	}

	s.publish(EventShareRevoked, caller.ID, ShareEvent{GrantID: g.ID, ExpenseID: g.ExpenseID, Grantee: g.GranteeEmail})
	return nil
}
