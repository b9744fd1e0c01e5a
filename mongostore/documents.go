package mongostore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/money"
	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/session"
	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

// Documents keep ids as strings and money as integer cents, the same
// encoding the SQL schema uses.

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Role         string    `bson:"role"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toUserDoc(u *user.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
	}
}

func (d userDoc) user() (*user.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing user id: %w", err)
	}
	return &user.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		Role:         permission.Role(d.Role),
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}, nil
}

type expenseDoc struct {
	ID            string    `bson:"_id"`
	AmountCents   int64     `bson:"amount_cents"`
	Category      string    `bson:"category"`
	Description   string    `bson:"description"`
	Date          time.Time `bson:"date"`
	OwnerID       string    `bson:"owner_id"`
	OwnerEmail    string    `bson:"owner_email"`
	IsShared      bool      `bson:"is_shared"`
	LedgerEntryID string    `bson:"ledger_entry_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
}

func toExpenseDoc(e expense.Expense) expenseDoc {
	d := expenseDoc{
		ID:          e.ID.String(),
		AmountCents: money.Cents(e.Amount),
		Category:    e.Category,
		Description: e.Description,
		Date:        expense.Day(e.Date),
		OwnerID:     e.OwnerID.String(),
		OwnerEmail:  e.OwnerEmail,
		IsShared:    e.IsShared,
		CreatedAt:   e.CreatedAt.UTC(),
	}
	if e.LedgerEntryID != nil {
		d.LedgerEntryID = e.LedgerEntryID.String()
	}
	return d
}

func (d expenseDoc) expense() (expense.Expense, error) {
	e := expense.Expense{
		Amount:      money.FromCents(d.AmountCents),
		Category:    d.Category,
		Description: d.Description,
		Date:        expense.Day(d.Date),
		OwnerEmail:  d.OwnerEmail,
		IsShared:    d.IsShared,
		CreatedAt:   d.CreatedAt,
	}
	var err error
	if e.ID, err = uuid.Parse(d.ID); err != nil {
		return e, fmt.Errorf("parsing expense id: %w", err)
	}
	if e.OwnerID, err = uuid.Parse(d.OwnerID); err != nil {
		return e, fmt.Errorf("parsing expense owner id: %w", err)
	}
	if d.LedgerEntryID != "" {
		ref, err := uuid.Parse(d.LedgerEntryID)
		if err != nil {
			return e, fmt.Errorf("parsing ledger reference: %w", err)
		}
		e.LedgerEntryID = &ref
	}
	return e, nil
}

type splitDoc struct {
	Email       string `bson:"email"`
	Percentage  string `bson:"percentage"`
	AmountCents int64  `bson:"amount_cents"`
	HasPaid     bool   `bson:"has_paid"`
}

type entryDoc struct {
	ID          string     `bson:"_id"`
	AmountCents int64      `bson:"amount_cents"`
	Category    string     `bson:"category"`
	Description string     `bson:"description"`
	Date        time.Time  `bson:"date"`
	CreatedBy   string     `bson:"created_by"`
	PaidBy      string     `bson:"paid_by"`
	Splits      []splitDoc `bson:"splits"`
	Status      string     `bson:"status"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func toEntryDoc(e ledger.Entry) entryDoc {
	d := entryDoc{
		ID:          e.ID.String(),
		AmountCents: money.Cents(e.Amount),
		Category:    e.Category,
		Description: e.Description,
		Date:        ledger.Day(e.Date),
		CreatedBy:   e.CreatedBy.String(),
		PaidBy:      e.PaidBy,
		Splits:      make([]splitDoc, 0, len(e.Splits)),
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
	for _, s := range e.Splits {
		d.Splits = append(d.Splits, splitDoc{
			Email:       s.ParticipantEmail,
			Percentage:  s.Percentage.String(),
			AmountCents: money.Cents(s.Amount),
			HasPaid:     s.HasPaid,
		})
	}
	return d
}

func (d entryDoc) entry() (ledger.Entry, error) {
	e := ledger.Entry{
		Amount:      money.FromCents(d.AmountCents),
		Category:    d.Category,
		Description: d.Description,
		Date:        ledger.Day(d.Date),
		PaidBy:      d.PaidBy,
		Splits:      make([]ledger.Split, 0, len(d.Splits)),
		Status:      ledger.Status(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	var err error
	if e.ID, err = uuid.Parse(d.ID); err != nil {
		return e, fmt.Errorf("parsing ledger entry id: %w", err)
	}
	if e.CreatedBy, err = uuid.Parse(d.CreatedBy); err != nil {
		return e, fmt.Errorf("parsing ledger creator id: %w", err)
	}
	for _, s := range d.Splits {
		pct, err := decimal.NewFromString(s.Percentage)
		if err != nil {
			return e, fmt.Errorf("parsing split percentage: %w", err)
		}
		e.Splits = append(e.Splits, ledger.Split{
			ParticipantEmail: s.Email,
			Percentage:       pct,
			Amount:           money.FromCents(s.AmountCents),
			HasPaid:          s.HasPaid,
		})
	}
	return e, nil
}

type grantDoc struct {
	ID           string    `bson:"_id"`
	ExpenseID    string    `bson:"expense_id"`
	GranteeEmail string    `bson:"grantee_email"`
	Permission   string    `bson:"permission"`
	GrantedBy    string    `bson:"granted_by"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toGrantDoc(g sharing.Grant) grantDoc {
	return grantDoc{
		ID:           g.ID.String(),
		ExpenseID:    g.ExpenseID.String(),
		GranteeEmail: g.GranteeEmail,
		Permission:   string(g.Permission),
		GrantedBy:    g.GrantedBy.String(),
		CreatedAt:    g.CreatedAt.UTC(),
	}
}

func (d grantDoc) grant() (sharing.Grant, error) {
	g := sharing.Grant{
		GranteeEmail: d.GranteeEmail,
		Permission:   permission.Level(d.Permission),
		CreatedAt:    d.CreatedAt,
	}
	var err error
	if g.ID, err = uuid.Parse(d.ID); err != nil {
		return g, fmt.Errorf("parsing grant id: %w", err)
	}
	if g.ExpenseID, err = uuid.Parse(d.ExpenseID); err != nil {
		return g, fmt.Errorf("parsing grant expense id: %w", err)
	}
	if g.GrantedBy, err = uuid.Parse(d.GrantedBy); err != nil {
		return g, fmt.Errorf("parsing grant author id: %w", err)
	}
	return g, nil
}

type sessionDoc struct {
	Token     string    `bson:"_id"`
	ID        string    `bson:"session_id"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

func toSessionDoc(s *session.Session) sessionDoc {
	return sessionDoc{
		Token:     s.Token,
		ID:        s.ID.String(),
		UserID:    s.UserID.String(),
		ExpiresAt: s.ExpiresAt.UTC(),
		CreatedAt: s.CreatedAt.UTC(),
	}
}

func (d sessionDoc) session() (*session.Session, error) {
	s := &session.Session{
		Token:     d.Token,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
	}
	var err error
	if s.ID, err = uuid.Parse(d.ID); err != nil {
		return nil, fmt.Errorf("parsing session id: %w", err)
	}
	if s.UserID, err = uuid.Parse(d.UserID); err != nil {
		return nil, fmt.Errorf("parsing session user id: %w", err)
	}
	return s, nil
}

// eventDoc stores the payload as JSON text so any Data value survives,
// matching what the SQL sink writes.
type eventDoc struct {
	ID        string            `bson:"_id"`
	Type      string            `bson:"type"`
	Data      string            `bson:"data,omitempty"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at"`
}

func toEventDoc(e eventlogger.Event) (eventDoc, error) {
	d := eventDoc{
		ID:        e.ID.String(),
		Type:      e.Type,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt.UTC(),
	}
	if e.Data != nil {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return d, fmt.Errorf("encoding event data: %w", err)
		}
		d.Data = string(data)
	}
	return d, nil
}

func (d eventDoc) event() (eventlogger.Event, error) {
	e := eventlogger.Event{
		Type:      d.Type,
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
	}
	var err error
	if e.ID, err = uuid.Parse(d.ID); err != nil {
		return e, fmt.Errorf("parsing event id: %w", err)
	}
	if d.Data != "" {
		e.Data = json.RawMessage(d.Data)
	}
	return e, nil
}
