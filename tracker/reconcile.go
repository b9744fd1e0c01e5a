package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
)

const DefaultStaleAfter = 5 * time.Minute

// ReconcileReport counts what a sweep repaired.
type ReconcileReport struct {
	CreatesCompleted int `json:"creates_completed"`
	ExpensesRestored int `json:"expenses_restored"`
	DeletesFinished  int `json:"deletes_finished"`
	OrphanExpenses   int `json:"orphan_expenses_removed"`
	OrphanGrants     int `json:"orphan_grants_removed"`
}

func (r ReconcileReport) Empty() bool {
	return r == ReconcileReport{}
}

// ReconcileAs runs Reconcile on behalf of a participant, who must hold the
// owner or co_owner role.
func (s *Service) ReconcileAs(ctx context.Context, callerID uuid.UUID, staleAfter time.Duration) (ReconcileReport, error) {
	caller, err := s.caller(ctx, callerID)
	if err != nil {
		return ReconcileReport{}, err
	}
	if !privileged(caller.Role) {
		return ReconcileReport{}, forbidden("reconcile", "owner or co_owner role required")
	}
	return s.Reconcile(ctx, staleAfter)
}

// Reconcile repairs what interrupted multi-record writes left behind.
// Entries pending for longer than staleAfter get their missing participant
// expenses and are committed; entries stuck deleting have their cascade
// finished. Expenses referencing a missing entry and grants on a missing
// expense are removed. Every step is safe to repeat.
func (s *Service) Reconcile(ctx context.Context, staleAfter time.Duration) (ReconcileReport, error) {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	cutoff := s.now().Add(-staleAfter)

	var (
		report   ReconcileReport
		failures []error
	)

	pending, err := s.ledger.ListStale(ctx, ledger.StatusPending, cutoff)
	if err != nil {
		return report, fmt.Errorf("listing pending ledger entries: %w", err)
	}
	for _, entry := range pending {
		restored, err := s.completeCreate(ctx, &entry)
		report.ExpensesRestored += restored
		if err != nil {
			failures = append(failures, err)
			continue
		}
		report.CreatesCompleted++
	}

	deleting, err := s.ledger.ListStale(ctx, ledger.StatusDeleting, cutoff)
	if err != nil {
		return report, fmt.Errorf("listing deleting ledger entries: %w", err)
	}
	for _, entry := range deleting {
		var dr DeleteReport
		if errs := s.cascadeEntry(ctx, entry.ID, &dr); len(errs) > 0 {
			failures = append(failures, errs...)
			continue
		}
		report.DeletesFinished++
	}

	orphans, errs := s.removeOrphanExpenses(ctx)
	report.OrphanExpenses = orphans
	failures = append(failures, errs...)

	grants, errs := s.removeOrphanGrants(ctx)
	report.OrphanGrants = grants
	failures = append(failures, errs...)

	if !report.Empty() {
		s.log.Info("reconciled ledger", "creates_completed", report.CreatesCompleted, "expenses_restored", report.ExpensesRestored,
			"deletes_finished", report.DeletesFinished, "orphan_expenses", report.OrphanExpenses, "orphan_grants", report.OrphanGrants)
		s.publish(EventReconciled, uuid.Nil, report)
	}
	if len(failures) > 0 {
		return report, s.partial(uuid.Nil, "reconcile", failures)
	}
	return report, nil
}

// completeCreate writes the participant expenses a pending entry is missing
// and commits it.
func (s *Service) completeCreate(ctx context.Context, entry *ledger.Entry) (int, error) {
	existing, err := s.expenses.ListByLedgerEntry(ctx, entry.ID)
	if err != nil {
		return 0, fmt.Errorf("listing expenses of ledger entry %s: %w", entry.ID, err)
	}
	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[e.OwnerEmail] = true
	}

	restored := 0
	for _, split := range entry.Splits {
		if have[split.ParticipantEmail] {
			continue
		}
		if _, err := s.createShare(ctx, entry, split); err != nil {
			return restored, fmt.Errorf("restoring expense for %s on ledger entry %s: %w", split.ParticipantEmail, entry.ID, err)
		}
		restored++
	}

	if err := s.ledger.SetStatus(ctx, entry.ID, ledger.StatusCommitted); err != nil {
		return restored, fmt.Errorf("committing ledger entry %s: %w", entry.ID, err)
	}
	return restored, nil
}

func (s *Service) removeOrphanExpenses(ctx context.Context) (int, []error) {
	refs, err := s.expenses.ListLedgerReferences(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("listing ledger references: %w", err)}
	}

	var (
		removed  int
		failures []error
	)
	for _, ref := range refs {
		_, err := s.ledger.GetByID(ctx, ref)
		if err == nil {
			continue
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			failures = append(failures, fmt.Errorf("loading ledger entry %s: %w", ref, err))
			continue
		}

		orphans, err := s.expenses.ListByLedgerEntry(ctx, ref)
		if err != nil {
			failures = append(failures, fmt.Errorf("listing expenses of ledger entry %s: %w", ref, err))
			continue
		}
		var dr DeleteReport
		for _, e := range orphans {
			if err := s.deleteOne(ctx, e.ID, &dr); err != nil && !errors.Is(err, expense.ErrNotFound) {
				failures = append(failures, fmt.Errorf("orphan expense %s: %w", e.ID, err))
			}
		}
		removed += len(dr.ExpensesDeleted)
	}
	return removed, failures
}

func (s *Service) removeOrphanGrants(ctx context.Context) (int, []error) {
	all, err := s.grants.List(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("listing grants: %w", err)}
	}

	exists := make(map[uuid.UUID]bool)
	var failures []error
	orphans := all[:0]
	for _, g := range all {
		ok, seen := exists[g.ExpenseID]
		if !seen {
			_, err := s.expenses.GetByID(ctx, g.ExpenseID)
			switch {
			case err == nil:
				ok = true
			case errors.Is(err, expense.ErrNotFound):
				ok = false
			default:
				failures = append(failures, fmt.Errorf("loading expense %s: %w", g.ExpenseID, err))
				continue
			}
			exists[g.ExpenseID] = ok
		}
		if !ok {
			orphans = append(orphans, g)
		}
	}

	removed, errs := s.deleteGrants(ctx, orphans)
	return removed, append(failures, errs...)
}
