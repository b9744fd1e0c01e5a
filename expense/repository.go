package expense

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/money"
)

const dateLayout = "2006-01-02"

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

const selectExpense = `SELECT id, amount_cents, category, description, expense_date, owner_id, owner_email, is_shared, ledger_entry_id, created_at FROM expenses`

func (r *repository) Create(ctx context.Context, e Expense) error {
	query := `INSERT INTO expenses (id, amount_cents, category, description, expense_date, owner_id, owner_email, is_shared, ledger_entry_id, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		e.ID.String(),
		money.Cents(e.Amount),
		e.Category,
		e.Description,
		e.Date.Format(dateLayout),
		e.OwnerID.String(),
		e.OwnerEmail,
		e.IsShared,
		nullableID(e.LedgerEntryID),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, selectExpense+` WHERE id = $1`, id.String()))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying expense: %w", err)
	}
	return e, nil
}

func (r *repository) Update(ctx context.Context, e Expense) error {
	query := `UPDATE expenses SET amount_cents = $1, category = $2, description = $3, expense_date = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, money.Cents(e.Amount), e.Category, e.Description, e.Date.Format(dateLayout), e.ID.String())
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}
	return expectRow(res)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	return expectRow(res)
}

func (r *repository) List(ctx context.Context, f Filter) ([]Expense, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OwnerID != uuid.Nil {
		where = append(where, "owner_id = "+arg(f.OwnerID.String()))
	}
	if f.Category != "" {
		where = append(where, "LOWER(category) = "+arg(strings.ToLower(f.Category)))
	}
	if !f.From.IsZero() {
		where = append(where, "expense_date >= "+arg(f.From.Format(dateLayout)))
	}
	if !f.To.IsZero() {
		where = append(where, "expense_date < "+arg(f.To.Format(dateLayout)))
	}
	if f.IsShared != nil {
		where = append(where, "is_shared = "+arg(*f.IsShared))
	}

	query := selectExpense
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY expense_date DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	return r.list(ctx, query, args...)
}

func (r *repository) ListByLedgerEntry(ctx context.Context, entryID uuid.UUID) ([]Expense, error) {
	return r.list(ctx, selectExpense+` WHERE ledger_entry_id = $1 ORDER BY created_at ASC`, entryID.String())
}

func (r *repository) ListLedgerReferences(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT ledger_entry_id FROM expenses WHERE ledger_entry_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying ledger references: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing ledger reference: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (*Expense, error) {
	var (
		e       Expense
		id      string
		ownerID string
		date    string
		entryID sql.NullString
		cents   int64
	)
	err := s.Scan(&id, &cents, &e.Category, &e.Description, &date, &ownerID, &e.OwnerEmail, &e.IsShared, &entryID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing expense id: %w", err)
	}
	if e.OwnerID, err = uuid.Parse(ownerID); err != nil {
		return nil, fmt.Errorf("parsing expense owner: %w", err)
	}
	if e.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("parsing expense date: %w", err)
	}
	if entryID.Valid {
		ref, err := uuid.Parse(entryID.String)
		if err != nil {
			return nil, fmt.Errorf("parsing ledger reference: %w", err)
		}
		e.LedgerEntryID = &ref
	}
	e.Amount = money.FromCents(cents)
	return &e, nil
}

func nullableID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
