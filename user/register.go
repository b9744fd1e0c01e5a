package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sijujiampugi-arch/SpendWise/permission"
)

var (
	ErrEmailExists   = errors.New("email already exists")
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrBlankPassword = errors.New("password can't be blank")
	ErrNotFound      = errors.New("user not found")
)

// Register creates an account, or claims a placeholder participant with the
// same email. The very first account becomes the owner.
func Register(ctx context.Context, repo Repository, email, password, name string) (*User, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	if password == "" {
		return nil, ErrBlankPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	if existing != nil {
		if !existing.IsPlaceholder() {
			return nil, ErrEmailExists
		}
		if err := repo.SetPassword(ctx, existing.ID, string(hashedPassword)); err != nil {
			return nil, fmt.Errorf("claiming placeholder: %w", err)
		}
		existing.PasswordHash = string(hashedPassword)
		if name = strings.TrimSpace(name); name != "" {
			if err := repo.UpdateName(ctx, existing.ID, name); err != nil {
				return nil, fmt.Errorf("updating name: %w", err)
			}
			existing.Name = name
		}
		return existing, nil
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	role := permission.RoleEditor
	if count == 0 {
		role = permission.RoleOwner
	}

	user := &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         role,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	return user, nil
}

// Provision returns the participant with the given email, creating a
// password-less viewer placeholder when none exists.
func Provision(ctx context.Context, repo Repository, email string) (*User, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user := &User{
		ID:        uuid.New(),
		Name:      strings.SplitN(email, "@", 2)[0],
		Email:     email,
		Role:      permission.RoleViewer,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, user); err != nil {
		// lost a race with another provisioner
		if again, getErr := repo.GetByEmail(ctx, email); getErr == nil && again != nil {
			return again, nil
		}
		return nil, fmt.Errorf("provisioning user: %w", err)
	}
	return user, nil
}

func VerifyPassword(hashedPassword, password string) error {
	if hashedPassword == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
