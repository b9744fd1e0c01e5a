package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type grants struct{ *Store }

func (r *grants) Upsert(_ context.Context, g sharing.Grant) (*sharing.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpGrantUpsert); err != nil {
		return nil, err
	}
	for id, existing := range r.grants {
		if existing.ExpenseID == g.ExpenseID && existing.GranteeEmail == g.GranteeEmail {
			existing.Permission = g.Permission
			existing.GrantedBy = g.GrantedBy
			r.grants[id] = existing
			return &existing, nil
		}
	}
	r.grants[g.ID] = g
	r.stamp(g.ID)
	return &g, nil
}

func (r *grants) GetByID(_ context.Context, id uuid.UUID) (*sharing.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grants[id]
	if !ok {
		return nil, sharing.ErrNotFound
	}
	return &g, nil
}

func (r *grants) ListByExpense(_ context.Context, expenseID uuid.UUID) ([]sharing.Grant, error) {
	return r.list(func(g sharing.Grant) bool { return g.ExpenseID == expenseID }), nil
}

func (r *grants) ListByGrantee(_ context.Context, email string) ([]sharing.Grant, error) {
	email = user.NormalizeEmail(email)
	return r.list(func(g sharing.Grant) bool { return g.GranteeEmail == email }), nil
}

func (r *grants) List(_ context.Context) ([]sharing.Grant, error) {
	return r.list(func(sharing.Grant) bool { return true }), nil
}

func (r *grants) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpGrantDelete); err != nil {
		return err
	}
	if _, ok := r.grants[id]; !ok {
		return sharing.ErrNotFound
	}
	delete(r.grants, id)
	return nil
}

func (r *grants) DeleteByExpense(_ context.Context, expenseID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpGrantDelete); err != nil {
		return 0, err
	}
	n := 0
	for id, g := range r.grants {
		if g.ExpenseID == expenseID {
			delete(r.grants, id)
			n++
		}
	}
	return n, nil
}

func (r *grants) list(match func(sharing.Grant) bool) []sharing.Grant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]sharing.Grant, 0)
	for _, g := range r.grants {
		if match(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.order[out[i].ID] < r.order[out[j].ID]
	})
	return out
}
