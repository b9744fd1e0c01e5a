package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type SplitRequest struct {
	Amount      decimal.Decimal     `json:"amount"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	Date        time.Time           `json:"date"`
	PaidBy      string              `json:"paid_by"` // defaults to the caller
	Splits      []ledger.SplitInput `json:"splits"`
}

type SplitResult struct {
	Entry      ledger.Entry `json:"ledger_entry"`
	ExpenseIDs []uuid.UUID  `json:"expense_ids"`
}

// CreateSplitExpense records a split bill: the ledger entry first, marked
// pending, then one expense per participant carrying that participant's
// share, then the entry is committed. Participants without an account are
// provisioned as placeholders.
//
// Expense inserts are independent. When some fail the result is returned
// with a PartialConsistencyWarning and the entry stays pending for
// Reconcile to complete.
func (s *Service) CreateSplitExpense(ctx context.Context, callerID uuid.UUID, req SplitRequest) (*SplitResult, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role == permission.RoleViewer {
		s.log.Warn("viewer tried to split an expense", "user_id", caller.ID)
		return nil, forbidden("create expenses", "viewer role")
	}

	payer := req.PaidBy
	if payer == "" {
		payer = caller.Email
	}
	entry, err := ledger.NewEntry(caller.ID, req.Amount, req.Category, req.Description, req.Date, payer, req.Splits)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording ledger entry: %w", err)
	}

	result := &SplitResult{Entry: entry, ExpenseIDs: make([]uuid.UUID, 0, len(entry.Splits))}
	var failures []error
	for _, split := range entry.Splits {
		id, err := s.createShare(ctx, &entry, split)
		if err != nil {
			failures = append(failures, fmt.Errorf("expense for %s: %w", split.ParticipantEmail, err))
			continue
		}
		result.ExpenseIDs = append(result.ExpenseIDs, id)
	}

	if len(failures) == 0 {
		if err := s.ledger.SetStatus(ctx, entry.ID, ledger.StatusCommitted); err != nil {
			failures = append(failures, fmt.Errorf("committing ledger entry: %w", err))
		} else {
			result.Entry.Status = ledger.StatusCommitted
		}
	}

	s.publish(ledger.EventSplitRecorded, caller.ID, entry.RecordedEvent())
	s.log.Info("split expense recorded", "ledger_entry_id", entry.ID, "participants", len(entry.Splits), "created", len(result.ExpenseIDs))

	if len(failures) > 0 {
		return result, s.partial(caller.ID, "create split expense", failures, "ledger_entry_id", entry.ID)
	}
	return result, nil
}

// createShare writes one participant's copy of a split bill.
func (s *Service) createShare(ctx context.Context, entry *ledger.Entry, split ledger.Split) (uuid.UUID, error) {
	participant, err := user.Provision(ctx, s.users, split.ParticipantEmail)
	if err != nil {
		return uuid.Nil, err
	}

	entryID := entry.ID
	e := expense.Expense{
		ID:            uuid.New(),
		Amount:        split.Amount,
		Category:      entry.Category,
		Description:   expense.TagShared(entry.Description),
		Date:          entry.Date,
		OwnerID:       participant.ID,
		OwnerEmail:    participant.Email,
		IsShared:      true,
		LedgerEntryID: &entryID,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.expenses.Create(ctx, e); err != nil {
		return uuid.Nil, err
	}
	return e.ID, nil
}

// SharedExpenses lists the ledger entries the caller created or holds a
// split in.
func (s *Service) SharedExpenses(ctx context.Context, callerID uuid.UUID) ([]ledger.Entry, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListForParticipant(ctx, caller.Email, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	return entries, nil
}

// Settlements nets what the caller owes and is owed across every ledger
// entry they take part in.
func (s *Service) Settlements(ctx context.Context, callerID uuid.UUID) (ledger.Summary, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return ledger.Summary{}, err
	}
	entries, err := s.ledger.ListForParticipant(ctx, caller.Email, caller.ID)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("listing ledger entries: %w", err)
	}
	return ledger.Summarize(ledger.ComputeSettlements(caller.Email, entries)), nil
}

// MarkSplitPaid settles one participant's share of an entry. The payer, the
// entry's creator and owner or co_owner roles may do this.
func (s *Service) MarkSplitPaid(ctx context.Context, callerID, entryID uuid.UUID, participantEmail string) (*ledger.Entry, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	entry, err := s.entry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if caller.Email != entry.PaidBy && caller.ID != entry.CreatedBy && !privileged(caller.Role) {
		s.log.Warn("settle denied", "user_id", caller.ID, "ledger_entry_id", entry.ID)
		return nil, forbidden("settle split", "only the payer or the creator may settle")
	}

	split, ok := entry.Participant(participantEmail)
	if !ok {
		return nil, &NotFoundError{Kind: "split participant", ID: user.NormalizeEmail(participantEmail)}
	}
	if split.HasPaid {
		return entry, nil
	}

	if err := s.ledger.MarkPaid(ctx, entry.ID, split.ParticipantEmail); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, notFound("ledger entry", entry.ID)
		}
		return nil, err
	}
	split.HasPaid = true

	s.publish(ledger.EventSplitPaid, caller.ID, ledger.SplitPaidEvent{
		EntryID:     entry.ID,
		Participant: split.ParticipantEmail,
		MarkedBy:    caller.ID,
	})
	return entry, nil
}

func (s *Service) entry(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	entry, err := s.ledger.GetByID(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, notFound("ledger entry", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading ledger entry: %w", err)
	}
	return entry, nil
}
