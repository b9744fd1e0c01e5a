package sharing

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

const selectGrant = `SELECT id, expense_id, grantee_email, permission, granted_by, created_at FROM share_grants`

func (r *repository) Upsert(ctx context.Context, g Grant) (*Grant, error) {
	query := `INSERT INTO share_grants (id, expense_id, grantee_email, permission, granted_by, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (expense_id, grantee_email)
              DO UPDATE SET permission = excluded.permission, granted_by = excluded.granted_by`
	_, err := r.db.ExecContext(ctx, query, g.ID.String(), g.ExpenseID.String(), g.GranteeEmail, string(g.Permission), g.GrantedBy.String(), g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting share grant: %w", err)
	}

	stored, err := scanGrant(r.db.QueryRowContext(ctx, selectGrant+` WHERE expense_id = $1 AND grantee_email = $2`, g.ExpenseID.String(), g.GranteeEmail))
	if err != nil {
		return nil, fmt.Errorf("reading share grant: %w", err)
	}
	return stored, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Grant, error) {
	g, err := scanGrant(r.db.QueryRowContext(ctx, selectGrant+` WHERE id = $1`, id.String()))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying share grant: %w", err)
	}
	return g, nil
}

func (r *repository) ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]Grant, error) {
	return r.list(ctx, selectGrant+` WHERE expense_id = $1 ORDER BY created_at ASC`, expenseID.String())
}

func (r *repository) ListByGrantee(ctx context.Context, email string) ([]Grant, error) {
	return r.list(ctx, selectGrant+` WHERE grantee_email = $1 ORDER BY created_at ASC`, user.NormalizeEmail(email))
}

func (r *repository) List(ctx context.Context) ([]Grant, error) {
	return r.list(ctx, selectGrant+` ORDER BY created_at ASC`)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_grants WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("deleting share grant: %w", err)
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

func (r *repository) DeleteByExpense(ctx context.Context, expenseID uuid.UUID) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_grants WHERE expense_id = $1`, expenseID.String())
	if err != nil {
		return 0, fmt.Errorf("deleting share grants: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying share grants: %w", err)
	}
	defer rows.Close()

	grants := make([]Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGrant(s scanner) (*Grant, error) {
	var (
		g         Grant
		id        string
		expenseID string
		grantedBy string
		level     string
	)
	if err := s.Scan(&id, &expenseID, &g.GranteeEmail, &level, &grantedBy, &g.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if g.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing grant id: %w", err)
	}
	if g.ExpenseID, err = uuid.Parse(expenseID); err != nil {
		return nil, fmt.Errorf("parsing grant expense id: %w", err)
	}
	if g.GrantedBy, err = uuid.Parse(grantedBy); err != nil {
		return nil, fmt.Errorf("parsing grant author: %w", err)
	}
	g.Permission = permission.Level(level)
	return &g, nil
}
