package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/expense"
)

type expenses struct{ *Store }

func (r *expenses) Create(_ context.Context, e expense.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpExpenseCreate); err != nil {
		return err
	}
	r.expenses[e.ID] = copyExpense(e)
	r.stamp(e.ID)
	return nil
}

func (r *expenses) GetByID(_ context.Context, id uuid.UUID) (*expense.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.expenses[id]
	if !ok {
		return nil, expense.ErrNotFound
	}
	e = copyExpense(e)
	return &e, nil
}

func (r *expenses) Update(_ context.Context, e expense.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpExpenseUpdate); err != nil {
		return err
	}
	stored, ok := r.expenses[e.ID]
	if !ok {
		return expense.ErrNotFound
	}
	stored.Amount = e.Amount
	stored.Category = e.Category
	stored.Description = e.Description
	stored.Date = e.Date
	r.expenses[e.ID] = stored
	return nil
}

func (r *expenses) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpExpenseDelete); err != nil {
		return err
	}
	if _, ok := r.expenses[id]; !ok {
		return expense.ErrNotFound
	}
	delete(r.expenses, id)
	return nil
}

func (r *expenses) List(_ context.Context, f expense.Filter) ([]expense.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]expense.Expense, 0)
	for _, e := range r.expenses {
		if f.Match(e) {
			out = append(out, copyExpense(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *expenses) ListByLedgerEntry(_ context.Context, entryID uuid.UUID) ([]expense.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]expense.Expense, 0)
	for _, e := range r.expenses {
		if e.LedgerEntryID != nil && *e.LedgerEntryID == entryID {
			out = append(out, copyExpense(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.order[out[i].ID] < r.order[out[j].ID]
	})
	return out, nil
}

func (r *expenses) ListLedgerReferences(_ context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, e := range r.expenses {
		if e.LedgerEntryID != nil && !seen[*e.LedgerEntryID] {
			seen[*e.LedgerEntryID] = true
			out = append(out, *e.LedgerEntryID)
		}
	}
	return out, nil
}

func copyExpense(e expense.Expense) expense.Expense {
	if e.LedgerEntryID != nil {
		ref := *e.LedgerEntryID
		e.LedgerEntryID = &ref
	}
	return e
}
