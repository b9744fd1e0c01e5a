package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type entries struct{ *Store }

func (r *entries) Create(_ context.Context, entry ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpLedgerCreate); err != nil {
		return err
	}
	r.entries[entry.ID] = copyEntry(entry)
	r.stamp(entry.ID)
	return nil
}

func (r *entries) GetByID(_ context.Context, id uuid.UUID) (*ledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	entry = copyEntry(entry)
	return &entry, nil
}

func (r *entries) SetStatus(_ context.Context, id uuid.UUID, status ledger.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpLedgerSetStatus); err != nil {
		return err
	}
	entry, ok := r.entries[id]
	if !ok {
		return ledger.ErrNotFound
	}
	entry.Status = status
	entry.UpdatedAt = time.Now().UTC()
	r.entries[id] = entry
	return nil
}

func (r *entries) MarkPaid(_ context.Context, id uuid.UUID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return ledger.ErrNotFound
	}
	split, ok := entry.Participant(email)
	if !ok {
		return ledger.ErrNotFound
	}
	split.HasPaid = true
	r.entries[id] = entry
	return nil
}

func (r *entries) ListForParticipant(_ context.Context, email string, creator uuid.UUID) ([]ledger.Entry, error) {
	email = user.NormalizeEmail(email)
	return r.list(func(e *ledger.Entry) bool {
		if e.Status == ledger.StatusDeleting {
			return false
		}
		if e.CreatedBy == creator {
			return true
		}
		_, ok := e.Participant(email)
		return ok
	}), nil
}

func (r *entries) FindByNaturalKey(_ context.Context, key ledger.NaturalKey) ([]ledger.Entry, error) {
	return r.list(func(e *ledger.Entry) bool {
		k := e.NaturalKey()
		return k.CreatedBy == key.CreatedBy && k.Category == key.Category &&
			k.Description == key.Description && k.Date.Equal(key.Date)
	}), nil
}

func (r *entries) ListStale(_ context.Context, status ledger.Status, before time.Time) ([]ledger.Entry, error) {
	return r.list(func(e *ledger.Entry) bool {
		return e.Status == status && e.UpdatedAt.Before(before)
	}), nil
}

func (r *entries) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(OpLedgerDelete); err != nil {
		return err
	}
	if _, ok := r.entries[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *entries) list(match func(*ledger.Entry) bool) []ledger.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ledger.Entry, 0)
	for _, e := range r.entries {
		if match(&e) {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	return out
}

func copyEntry(e ledger.Entry) ledger.Entry {
	e.Splits = append([]ledger.Split(nil), e.Splits...)
	return e
}
