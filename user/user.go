package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/permission"
)

// User is a participant. A user with an empty PasswordHash is a placeholder
// provisioned because someone split an expense with that email; registering
// with the same email claims it.
type User struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Role         permission.Role `json:"role"`
	PasswordHash string          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (u *User) IsPlaceholder() bool {
	return u.PasswordHash == ""
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
	UpdateName(ctx context.Context, userID uuid.UUID, name string) error
	UpdateRole(ctx context.Context, userID uuid.UUID, role permission.Role) error
	SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// NormalizeEmail lower-cases and trims an address so that comparisons
// between splits, grants and accounts are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail is a syntactic check only: one "@" with something on both sides.
func ValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.Count(email, "@") != 1 || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	return true
}
