package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/money"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

const dateLayout = "2006-01-02"

type Repository interface {
	Create(ctx context.Context, entry Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	MarkPaid(ctx context.Context, id uuid.UUID, email string) error
	// ListForParticipant returns entries naming email as a split participant
	// or created by creator, excluding entries being deleted.
	ListForParticipant(ctx context.Context, email string, creator uuid.UUID) ([]Entry, error)
	FindByNaturalKey(ctx context.Context, key NaturalKey) ([]Entry, error)
	// ListStale returns entries stuck in status since before the cutoff.
	ListStale(ctx context.Context, status Status, before time.Time) ([]Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

const selectEntry = `SELECT id, amount_cents, category, description, expense_date, created_by, paid_by, status, created_at, updated_at FROM ledger_entries`

func (r *repository) Create(ctx context.Context, entry Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertEntry := `INSERT INTO ledger_entries (id, amount_cents, category, description, expense_date, created_by, paid_by, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = tx.ExecContext(
		ctx,
		insertEntry,
		entry.ID.String(),
		money.Cents(entry.Amount),
		entry.Category,
		entry.Description,
		entry.Date.Format(dateLayout),
		entry.CreatedBy.String(),
		entry.PaidBy,
		string(entry.Status),
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting ledger entry: %w", err)
	}

	for i, split := range entry.Splits {
		query := `INSERT INTO ledger_splits (entry_id, position, participant_email, percentage, amount_cents, has_paid) VALUES ($1, $2, $3, $4, $5, $6)`
		_, err = tx.ExecContext(ctx, query, entry.ID.String(), i, split.ParticipantEmail, split.Percentage.String(), money.Cents(split.Amount), split.HasPaid)
		if err != nil {
			return fmt.Errorf("inserting ledger split: %w", err)
		}
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	entry, err := scanEntry(r.db.QueryRowContext(ctx, selectEntry+` WHERE id = $1`, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := r.loadSplits(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE ledger_entries SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, email string) error {
	query := `UPDATE ledger_splits SET has_paid = $1 WHERE entry_id = $2 AND participant_email = $3`
	res, err := r.db.ExecContext(ctx, query, true, id.String(), user.NormalizeEmail(email))
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *repository) ListForParticipant(ctx context.Context, email string, creator uuid.UUID) ([]Entry, error) {
	query := selectEntry + `
              WHERE status <> $1
              AND (created_by = $2 OR id IN (SELECT entry_id FROM ledger_splits WHERE participant_email = $3))
              ORDER BY expense_date DESC, created_at DESC`
	return r.list(ctx, query, string(StatusDeleting), creator.String(), user.NormalizeEmail(email))
}

func (r *repository) FindByNaturalKey(ctx context.Context, key NaturalKey) ([]Entry, error) {
	query := selectEntry + `
              WHERE created_by = $1 AND category = $2 AND expense_date = $3 AND description = $4`
	return r.list(ctx, query, key.CreatedBy.String(), key.Category, key.Date.Format(dateLayout), key.Description)
}

func (r *repository) ListStale(ctx context.Context, status Status, before time.Time) ([]Entry, error) {
	query := selectEntry + ` WHERE status = $1 AND updated_at < $2 ORDER BY updated_at ASC`
	return r.list(ctx, query, string(status), before.UTC())
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_splits WHERE entry_id = $1`, id.String()); err != nil {
		return fmt.Errorf("deleting ledger splits: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("deleting ledger entry: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// splits are loaded after the cursor is closed: sqlite runs on a single
	// connection and cannot serve a second query while rows is open
	rows.Close()

	result := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if err := r.loadSplits(ctx, entry); err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, nil
}

func (r *repository) loadSplits(ctx context.Context, entry *Entry) error {
	query := `SELECT participant_email, percentage, amount_cents, has_paid
              FROM ledger_splits
              WHERE entry_id = $1
              ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, entry.ID.String())
	if err != nil {
		return err
	}
	defer rows.Close()

	entry.Splits = entry.Splits[:0]
	for rows.Next() {
		var (
			split      Split
			percentage string
			cents      int64
		)
		if err := rows.Scan(&split.ParticipantEmail, &percentage, &cents, &split.HasPaid); err != nil {
			return err
		}
		split.Percentage, err = decimal.NewFromString(percentage)
		if err != nil {
			return fmt.Errorf("parsing split percentage: %w", err)
		}
		split.Amount = money.FromCents(cents)
		entry.Splits = append(entry.Splits, split)
	}

	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		entry     Entry
		id        string
		createdBy string
		date      string
		status    string
		cents     int64
	)
	err := s.Scan(&id, &cents, &entry.Category, &entry.Description, &date, &createdBy, &entry.PaidBy, &status, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if entry.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing ledger entry id: %w", err)
	}
	if entry.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return nil, fmt.Errorf("parsing ledger creator id: %w", err)
	}
	if entry.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("parsing ledger date: %w", err)
	}
	entry.Amount = money.FromCents(cents)
	entry.Status = Status(status)
	return &entry, nil
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
