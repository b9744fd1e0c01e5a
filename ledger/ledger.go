package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/money"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

// Status is the two-phase intent marker of an entry. Entries are written
// pending, committed once every participant expense exists, and flipped to
// deleting before a delete cascades.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCommitted Status = "committed"
	StatusDeleting  Status = "deleting"
)

// Entry is the authoritative record of one split bill.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	PaidBy      string          `json:"paid_by"` // email; the payer may not have an account
	Splits      []Split         `json:"splits"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Split struct {
	ParticipantEmail string          `json:"participant_email"`
	Percentage       decimal.Decimal `json:"percentage"`
	Amount           decimal.Decimal `json:"computed_amount"`
	HasPaid          bool            `json:"has_paid"`
}

type SplitInput struct {
	Email      string          `json:"email"`
	Percentage decimal.Decimal `json:"percentage"`
}

// NaturalKey identifies the entry behind a legacy shared expense that has no
// stored back-reference. Matching on it is best effort.
type NaturalKey struct {
	CreatedBy   uuid.UUID
	Category    string
	Date        time.Time
	Description string
}

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrEmptyCategory = errors.New("category can't be empty")
	ErrNotFound      = errors.New("ledger entry not found")
	ErrInvalidSplit  = errors.New("invalid split")
)

// InvalidSplitError describes why a split list was rejected. Sum is set when
// the percentages did not add up to 100.
type InvalidSplitError struct {
	Reason string
	Email  string
	Sum    decimal.Decimal
}

func (e *InvalidSplitError) Error() string {
	if e.Email != "" {
		return fmt.Sprintf("invalid split for %q: %s", e.Email, e.Reason)
	}
	return "invalid split: " + e.Reason
}

func (e *InvalidSplitError) Is(target error) bool {
	return target == ErrInvalidSplit
}

// NewEntry validates the bill and its splits and returns a pending entry.
func NewEntry(createdBy uuid.UUID, amount decimal.Decimal, category, description string, date time.Time, payerEmail string, inputs []SplitInput) (Entry, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return Entry{}, ErrEmptyCategory
	}

	splits, err := CalculateSplits(amount, payerEmail, inputs)
	if err != nil {
		return Entry{}, err
	}

	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}

	return Entry{
		ID:          uuid.New(),
		Amount:      money.Round(amount),
		Category:    category,
		Description: strings.TrimSpace(description),
		Date:        Day(date),
		CreatedBy:   createdBy,
		PaidBy:      user.NormalizeEmail(payerEmail),
		Splits:      splits,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CalculateSplits turns percentages into currency amounts. Each share is
// rounded on its own and the rounding remainder is not redistributed, so the
// shares may differ from total by up to one cent per participant.
func CalculateSplits(total decimal.Decimal, payerEmail string, inputs []SplitInput) ([]Split, error) {
	if !total.IsPositive() {
		return nil, ErrInvalidAmount
	}

	payer := user.NormalizeEmail(payerEmail)
	if !user.ValidEmail(payer) {
		return nil, &InvalidSplitError{Reason: "payer email is not valid", Email: payerEmail}
	}

	if len(inputs) == 0 {
		return nil, &InvalidSplitError{Reason: "no participants to split expense"}
	}

	seen := make(map[string]bool, len(inputs))
	sum := decimal.Zero
	for _, in := range inputs {
		email := user.NormalizeEmail(in.Email)
		if !user.ValidEmail(email) {
			return nil, &InvalidSplitError{Reason: "email is not valid", Email: in.Email}
		}
		if !in.Percentage.IsPositive() || in.Percentage.GreaterThan(money.Hundred()) {
			return nil, &InvalidSplitError{Reason: "percentage must be greater than 0 and at most 100", Email: email}
		}
		if seen[email] {
			return nil, &InvalidSplitError{Reason: "participant listed more than once", Email: email}
		}
		seen[email] = true
		sum = sum.Add(in.Percentage)
	}

	if sum.Sub(money.Hundred()).Abs().GreaterThan(money.Epsilon) {
		return nil, &InvalidSplitError{
			Reason: fmt.Sprintf("percentages sum to %s, want 100", sum.String()),
			Sum:    sum,
		}
	}

	splits := make([]Split, 0, len(inputs))
	for _, in := range inputs {
		email := user.NormalizeEmail(in.Email)
		splits = append(splits, Split{
			ParticipantEmail: email,
			Percentage:       in.Percentage,
			Amount:           money.Percent(total, in.Percentage),
			HasPaid:          email == payer,
		})
	}
	return splits, nil
}

// Participant reports whether email holds a split in the entry.
func (e *Entry) Participant(email string) (*Split, bool) {
	email = user.NormalizeEmail(email)
	for i := range e.Splits {
		if e.Splits[i].ParticipantEmail == email {
			return &e.Splits[i], true
		}
	}
	return nil, false
}

func (e *Entry) NaturalKey() NaturalKey {
	return NaturalKey{
		CreatedBy:   e.CreatedBy,
		Category:    e.Category,
		Date:        e.Date,
		Description: e.Description,
	}
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
