package sharing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

var ErrNotFound = errors.New("share grant not found")

// Grant gives one grantee view or edit access to one expense. There is at
// most one grant per (expense, grantee); sharing again replaces the level.
type Grant struct {
	ID           uuid.UUID        `json:"id"`
	ExpenseID    uuid.UUID        `json:"expense_id"`
	GranteeEmail string           `json:"shared_with_email"`
	Permission   permission.Level `json:"permission"`
	GrantedBy    uuid.UUID        `json:"shared_by"`
	CreatedAt    time.Time        `json:"created_at"`
}

func New(expenseID uuid.UUID, grantee string, level permission.Level, grantedBy uuid.UUID) Grant {
	return Grant{
		ID:           uuid.New(),
		ExpenseID:    expenseID,
		GranteeEmail: user.NormalizeEmail(grantee),
		Permission:   level,
		GrantedBy:    grantedBy,
		CreatedAt:    time.Now().UTC(),
	}
}

// LevelFor returns the strongest level any grant in grants gives email on
// expenseID.
func LevelFor(grants []Grant, expenseID uuid.UUID, email string) permission.Level {
	email = user.NormalizeEmail(email)
	level := permission.LevelNone
	for _, g := range grants {
		if g.ExpenseID == expenseID && g.GranteeEmail == email {
			level = permission.Stronger(level, g.Permission)
		}
	}
	return level
}

type Repository interface {
	// Upsert stores g, or replaces the level of the existing grant for the
	// same expense and grantee. The stored grant is returned.
	Upsert(ctx context.Context, g Grant) (*Grant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Grant, error)
	ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]Grant, error)
	ListByGrantee(ctx context.Context, email string) ([]Grant, error)
	List(ctx context.Context) ([]Grant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByExpense removes every grant on the expense and reports how
	// many were removed.
	DeleteByExpense(ctx context.Context, expenseID uuid.UUID) (int, error)
}
