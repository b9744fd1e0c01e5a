package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/sharing"
)

// DeleteReport lists what a delete removed.
type DeleteReport struct {
	ExpensesDeleted []uuid.UUID `json:"expenses_deleted"`
	GrantsDeleted   int         `json:"grants_deleted"`
	EntriesDeleted  []uuid.UUID `json:"ledger_entries_deleted"`
	// LegacyMatch is set when the ledger entry was found by natural key
	// because the expense predates stored ledger references.
	LegacyMatch bool `json:"legacy_match,omitempty"`
}

// DeleteExpense removes an expense and its grants. An expense created from a
// split bill takes the bill with it: the ledger entry is flipped to
// deleting, every participant's copy and their grants are removed, then the
// entry itself. Steps already done are not rolled back when a later one
// fails; the entry stays marked deleting and Reconcile finishes the job.
func (s *Service) DeleteExpense(ctx context.Context, callerID, expenseID uuid.UUID) (*DeleteReport, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	e, err := s.expense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	caps, err := s.capabilities(ctx, caller, e)
	if err != nil {
		return nil, err
	}
	if !caps.Delete {
		s.log.Warn("delete denied", "user_id", caller.ID, "expense_id", e.ID)
		return nil, forbidden("delete expense", "")
	}

	report := &DeleteReport{}

	if e.LedgerEntryID == nil {
		if err := s.deleteOne(ctx, e.ID, report); err != nil {
			if errors.Is(err, expense.ErrNotFound) {
				return nil, notFound("expense", e.ID)
			}
			return nil, err
		}
		var failures []error
		if e.LooksShared() {
			failures = s.deleteLegacyEntries(ctx, caller.ID, e, report)
		}
		s.publish(EventExpenseDeleted, caller.ID, expenseEvent(*e))
		if len(failures) > 0 {
			return report, s.partial(caller.ID, "delete expense", failures, "expense_id", e.ID)
		}
		return report, nil
	}

	entryID := *e.LedgerEntryID
	if err := s.ledger.SetStatus(ctx, entryID, ledger.StatusDeleting); err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("marking ledger entry for deletion: %w", err)
	}

	if err := s.deleteOne(ctx, e.ID, report); err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			return nil, notFound("expense", e.ID)
		}
		return nil, err
	}

	failures := s.cascadeEntry(ctx, entryID, report)
	s.publish(EventExpenseDeleted, caller.ID, expenseEvent(*e))
	if len(failures) > 0 {
		return report, s.partial(caller.ID, "delete expense", failures, "expense_id", e.ID, "ledger_entry_id", entryID)
	}
	s.publish(ledger.EventEntryRemoved, caller.ID, ledger.EntryRemovedEvent{EntryID: entryID, RemovedBy: caller.ID})
	return report, nil
}

// deleteOne removes an expense and its grants, grants first so that a grant
// never outlives its expense after a clean run.
func (s *Service) deleteOne(ctx context.Context, id uuid.UUID, report *DeleteReport) error {
	n, err := s.grants.DeleteByExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting share grants: %w", err)
	}
	report.GrantsDeleted += n

	if err := s.expenses.Delete(ctx, id); err != nil {
		return err
	}
	report.ExpensesDeleted = append(report.ExpensesDeleted, id)
	return nil
}

// cascadeEntry deletes every remaining expense referencing the entry and
// then the entry. Records already gone are skipped, so it is safe to rerun.
func (s *Service) cascadeEntry(ctx context.Context, entryID uuid.UUID, report *DeleteReport) []error {
	siblings, err := s.expenses.ListByLedgerEntry(ctx, entryID)
	if err != nil {
		return []error{fmt.Errorf("listing expenses of ledger entry %s: %w", entryID, err)}
	}

	var failures []error
	for _, sibling := range siblings {
		if err := s.deleteOne(ctx, sibling.ID, report); err != nil && !errors.Is(err, expense.ErrNotFound) {
			failures = append(failures, fmt.Errorf("expense %s: %w", sibling.ID, err))
		}
	}
	if len(failures) > 0 {
		return failures
	}

	if err := s.ledger.Delete(ctx, entryID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil
		}
		return []error{fmt.Errorf("ledger entry %s: %w", entryID, err)}
	}
	report.EntriesDeleted = append(report.EntriesDeleted, entryID)
	return nil
}

// deleteLegacyEntries finds ledger entries for a shared expense written
// before expenses stored their entry id. The match on creator, category,
// date and unmarked description is best effort: a collision removes an
// unrelated entry and an edited description misses the right one.
func (s *Service) deleteLegacyEntries(ctx context.Context, actor uuid.UUID, e *expense.Expense, report *DeleteReport) []error {
	key := ledger.NaturalKey{
		CreatedBy:   e.OwnerID,
		Category:    e.Category,
		Date:        e.Date,
		Description: expense.StripSharedMarker(e.Description),
	}
	entries, err := s.ledger.FindByNaturalKey(ctx, key)
	if err != nil {
		return []error{fmt.Errorf("matching legacy ledger entries: %w", err)}
	}
	if len(entries) == 0 {
		s.log.Warn("no ledger entry matched legacy shared expense", "expense_id", e.ID)
		return nil
	}

	report.LegacyMatch = true
	var failures []error
	for _, entry := range entries {
		if err := s.ledger.Delete(ctx, entry.ID); err != nil && !errors.Is(err, ledger.ErrNotFound) {
			failures = append(failures, fmt.Errorf("ledger entry %s: %w", entry.ID, err))
			continue
		}
		report.EntriesDeleted = append(report.EntriesDeleted, entry.ID)
		s.publish(ledger.EventEntryRemoved, actor, ledger.EntryRemovedEvent{EntryID: entry.ID, RemovedBy: actor, Legacy: true})
	}
	return failures
}

// deleteGrants removes grants whose expense no longer exists.
func (s *Service) deleteGrants(ctx context.Context, grants []sharing.Grant) (int, []error) {
	var (
		n        int
		failures []error
	)
	for _, g := range grants {
		if err := s.grants.Delete(ctx, g.ID); err != nil && !errors.Is(err, sharing.ErrNotFound) {
			failures = append(failures, fmt.Errorf("grant %s: %w", g.ID, err))
			continue
		}
		n++
	}
	return n, failures
}
