package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

const DefaultFeedLimit = 100

// FeedItem is an expense as one caller sees it.
type FeedItem struct {
	expense.Expense
	permission.Capabilities
	IsOwnedByMe bool `json:"is_owned_by_me"`
}

type ListOptions struct {
	Year     int
	Month    time.Month
	Category string
	Limit    int
	// OwnedOnly restricts the feed to the caller's own expenses.
	OwnedOnly bool
}

func (s *Service) CreateExpense(ctx context.Context, callerID uuid.UUID, in expense.Input) (*expense.Expense, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role == permission.RoleViewer {
		s.log.Warn("viewer tried to create an expense", "user_id", caller.ID)
		return nil, forbidden("create expenses", "viewer role")
	}

	e, err := expense.New(caller.ID, caller.Email, in)
	if err != nil {
		return nil, err
	}
	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, err
	}

	s.publish(EventExpenseCreated, caller.ID, expenseEvent(e))
	return &e, nil
}

// EditExpense overwrites amount, category, description and date in place.
func (s *Service) EditExpense(ctx context.Context, callerID, expenseID uuid.UUID, in expense.Input) (*expense.Expense, error) {
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
	if !caps.Edit {
		s.log.Warn("edit denied", "user_id", caller.ID, "expense_id", e.ID)
		return nil, forbidden("edit expense", "")
	}

	if err := e.Apply(in); err != nil {
		return nil, err
	}
	if err := s.expenses.Update(ctx, *e); err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			return nil, notFound("expense", expenseID)
		}
		return nil, err
	}

	s.publish(EventExpenseUpdated, caller.ID, expenseEvent(*e))
	return e, nil
}

func (s *Service) GetExpense(ctx context.Context, callerID, expenseID uuid.UUID) (*FeedItem, error) {
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
	if !caps.View {
		return nil, forbidden("view expense", "")
	}
	return &FeedItem{Expense: *e, Capabilities: caps, IsOwnedByMe: e.OwnerID == caller.ID}, nil
}

// ListExpenses returns the caller's feed newest first, each item carrying
// the caller's capabilities on it. Expenses the caller may not view are
// left out.
func (s *Service) ListExpenses(ctx context.Context, callerID uuid.UUID, opts ListOptions) ([]FeedItem, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	f := expense.Filter{Category: opts.Category}
	if opts.OwnedOnly {
		f.OwnerID = caller.ID
	}
	switch {
	case opts.Year > 0 && opts.Month > 0:
		f.From, f.To = expense.Month(opts.Year, opts.Month)
	case opts.Year > 0:
		f.From = time.Date(opts.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		f.To = f.From.AddDate(1, 0, 0)
	}
	// without full visibility some rows are filtered out below, so the
	// limit can only be applied afterwards
	if s.resolver.FullVisibility || opts.OwnedOnly {
		f.Limit = limit
	}

	expenses, err := s.expenses.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	grants, err := s.grants.ListByGrantee(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("listing grants: %w", err)
	}

	items := make([]FeedItem, 0, len(expenses))
	for _, e := range expenses {
		caps := s.resolve(caller, &e, sharing.LevelFor(grants, e.ID, caller.Email))
		if !caps.View {
			continue
		}
		items = append(items, FeedItem{Expense: e, Capabilities: caps, IsOwnedByMe: e.OwnerID == caller.ID})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

// ResolvePermissions returns the caller's capabilities on one expense.
func (s *Service) ResolvePermissions(ctx context.Context, callerID, expenseID uuid.UUID) (permission.Capabilities, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return permission.Capabilities{}, err
	}
	e, err := s.expense(ctx, expenseID)
	if err != nil {
		return permission.Capabilities{}, err
	}
	return s.capabilities(ctx, caller, e)
}

func (s *Service) capabilities(ctx context.Context, caller *user.User, e *expense.Expense) (permission.Capabilities, error) {
	grants, err := s.grants.ListByExpense(ctx, e.ID)
	if err != nil {
		return permission.Capabilities{}, fmt.Errorf("listing grants: %w", err)
	}
	return s.resolve(caller, e, sharing.LevelFor(grants, e.ID, caller.Email)), nil
}

func (s *Service) resolve(caller *user.User, e *expense.Expense, grant permission.Level) permission.Capabilities {
	return s.resolver.Resolve(permission.Input{
		Role:    caller.Role,
		IsOwner: e.OwnerID == caller.ID,
		Grant:   grant,
	})
}

func (s *Service) expense(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	e, err := s.expenses.GetByID(ctx, id)
	if errors.Is(err, expense.ErrNotFound) {
		return nil, notFound("expense", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading expense: %w", err)
	}
	return e, nil
}

func expenseEvent(e expense.Expense) ExpenseEvent {
	return ExpenseEvent{ExpenseID: e.ID, OwnerID: e.OwnerID, Amount: e.Amount, Category: e.Category}
}
