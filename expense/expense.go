package expense

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/money"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

// SharedMarker prefixes the description of every per-participant copy of a
// split bill. Old records carry only the marker and no ledger reference.
const SharedMarker = "[Shared] "

var (
	ErrNotFound      = errors.New("expense not found")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrEmptyCategory = errors.New("category can't be empty")
)

// Expense is one participant's own cost line.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	OwnerEmail  string          `json:"owner_email"`
	IsShared    bool            `json:"is_shared"`
	// LedgerEntryID points at the split bill this expense was created from.
	LedgerEntryID *uuid.UUID `json:"ledger_entry_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Input holds the fields a participant supplies when creating or editing.
type Input struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

func (in Input) validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func New(ownerID uuid.UUID, ownerEmail string, in Input) (Expense, error) {
	if err := in.validate(); err != nil {
		return Expense{}, err
	}
	now := time.Now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	return Expense{
		ID:          uuid.New(),
		Amount:      money.Round(in.Amount),
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Date:        Day(date),
		OwnerID:     ownerID,
		OwnerEmail:  user.NormalizeEmail(ownerEmail),
		CreatedAt:   now,
	}, nil
}

// Apply overwrites the editable fields. Identity, ownership, the shared flag
// and the ledger reference are kept.
func (e *Expense) Apply(in Input) error {
	if err := in.validate(); err != nil {
		return err
	}
	e.Amount = money.Round(in.Amount)
	e.Category = strings.TrimSpace(in.Category)
	description := strings.TrimSpace(in.Description)
	if e.IsShared && !HasSharedMarker(description) {
		description = TagShared(description)
	}
	e.Description = description
	if !in.Date.IsZero() {
		e.Date = Day(in.Date)
	}
	return nil
}

// LooksShared reports whether the expense came from a split bill, either by
// reference or by the legacy markers.
func (e *Expense) LooksShared() bool {
	return e.LedgerEntryID != nil || e.IsShared || HasSharedMarker(e.Description)
}

func TagShared(description string) string {
	return SharedMarker + description
}

func HasSharedMarker(description string) bool {
	return strings.HasPrefix(description, SharedMarker)
}

func StripSharedMarker(description string) string {
	return strings.TrimPrefix(description, SharedMarker)
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	OwnerID  uuid.UUID
	Category string
	From     time.Time
	To       time.Time // exclusive
	IsShared *bool
	Limit    int
}

// Month returns the [from, to) range covering one calendar month.
func Month(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Match applies the filter in process, for stores that cannot push it down.
func (f Filter) Match(e Expense) bool {
	if f.OwnerID != uuid.Nil && e.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Date.Before(f.To) {
		return false
	}
	if f.IsShared != nil && e.IsShared != *f.IsShared {
		return false
	}
	return true
}

type Repository interface {
	Create(ctx context.Context, e Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	Update(ctx context.Context, e Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns matching expenses newest first.
	List(ctx context.Context, f Filter) ([]Expense, error)
	ListByLedgerEntry(ctx context.Context, entryID uuid.UUID) ([]Expense, error)
	// ListLedgerReferences returns every distinct ledger entry id referenced
	// by an expense.
	ListLedgerReferences(ctx context.Context) ([]uuid.UUID, error)
}
