package user

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/permission"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	query := `INSERT INTO users (id, name, email, role, password_hash, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, u.ID.String(), u.Name, u.Email, string(u.Role), u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, COALESCE(name, ''), email, role, COALESCE(password_hash, ''), created_at FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, NormalizeEmail(email)))
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT id, COALESCE(name, ''), email, role, COALESCE(password_hash, ''), created_at FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id.String()))
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	query := `SELECT id, COALESCE(name, ''), email, role, COALESCE(password_hash, ''), created_at FROM users ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *repository) UpdateName(ctx context.Context, userID uuid.UUID, name string) error {
	query := `UPDATE users SET name = $1 WHERE id = $2`
	return r.execOne(ctx, query, name, userID.String())
}

func (r *repository) UpdateRole(ctx context.Context, userID uuid.UUID, role permission.Role) error {
	query := `UPDATE users SET role = $1 WHERE id = $2`
	return r.execOne(ctx, query, string(role), userID.String())
}

func (r *repository) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	return r.execOne(ctx, query, passwordHash, userID.String())
}

func (r *repository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) scanOne(row *sql.Row) (*User, error) {
	u, err := scanUser(row)
	if err != nil && err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*User, error) {
	var (
		user User
		id   string
		role string
	)
	err := s.Scan(&id, &user.Name, &user.Email, &role, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing user id: %w", err)
	}
	user.Role = permission.Role(role)
	return &user, nil
}
