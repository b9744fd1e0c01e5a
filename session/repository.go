package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type repository struct {
	db  *sql.DB
	ttl time.Duration
}

func NewRepository(db *sql.DB, ttl time.Duration) *repository {
	return &repository{db: db, ttl: ttl}
}

func (r *repository) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	session, err := New(userID, r.ttl)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		session.ID.String(), session.UserID.String(), session.Token, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	return session, nil
}

// GetByToken resolves token. An expired row is removed on the way out.
func (r *repository) GetByToken(ctx context.Context, token string) (*Session, error) {
	var (
		s      Session
		id     string
		userID string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at FROM sessions WHERE token = $1`,
		token,
	).Scan(&id, &userID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if s.Expired(time.Now()) {
		if err := r.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, ErrExpiredSession
	}

	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing session id: %w", err)
	}
	if s.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parsing session user id: %w", err)
	}
	return &s, nil
}

func (r *repository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteByUserID signs a participant out everywhere.
func (r *repository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID.String()); err != nil {
		return fmt.Errorf("deleting sessions of %s: %w", userID, err)
	}
	return nil
}
