package tracker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/memstore"
	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type recorder struct {
	mu     sync.Mutex
	events []eventlogger.Event
}

func (r *recorder) Log(e eventlogger.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	ctx    context.Context
	store  *memstore.Store
	svc    *Service
	events *recorder
	now    time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		store:  memstore.New(),
		events: &recorder{},
		now:    time.Now(),
	}
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEvents(f.events),
		WithClock(func() time.Time { return f.now }),
	}, opts...)
	f.svc = New(Stores{
		Users:    f.store.Users(),
		Expenses: f.store.Expenses(),
		Ledger:   f.store.Ledger(),
		Grants:   f.store.Grants(),
	}, opts...)
	return f
}

// register creates an account; the first one becomes the owner.
func (f *fixture) register(t *testing.T, email string) *user.User {
	t.Helper()
	u, err := user.Register(f.ctx, f.store.Users(), email, "secret", "")
	require.NoError(t, err)
	return u
}

func (f *fixture) setRole(t *testing.T, u *user.User, role permission.Role) {
	t.Helper()
	require.NoError(t, f.store.Users().UpdateRole(f.ctx, u.ID, role))
	u.Role = role
}

func (f *fixture) userByEmail(t *testing.T, email string) *user.User {
	t.Helper()
	u, err := f.store.Users().GetByEmail(f.ctx, email)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func (f *fixture) expense(t *testing.T, owner *user.User, amount, category string) *expense.Expense {
	t.Helper()
	e, err := f.svc.CreateExpense(f.ctx, owner.ID, expense.Input{
		Amount:   dec(amount),
		Category: category,
		Date:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) split(t *testing.T, creator *user.User, splits ...ledger.SplitInput) *SplitResult {
	t.Helper()
	res, err := f.svc.CreateSplitExpense(f.ctx, creator.ID, SplitRequest{
		Amount:      dec("300"),
		Category:    "Grocery",
		Description: "weekly shop",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Splits:      splits,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) ledgerCount(t *testing.T) int {
	t.Helper()
	entries, err := f.store.Ledger().ListStale(f.ctx, ledger.StatusCommitted, time.Now().Add(time.Hour))
	require.NoError(t, err)
	pending, err := f.store.Ledger().ListStale(f.ctx, ledger.StatusPending, time.Now().Add(time.Hour))
	require.NoError(t, err)
	deleting, err := f.store.Ledger().ListStale(f.ctx, ledger.StatusDeleting, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return len(entries) + len(pending) + len(deleting)
}

func (f *fixture) allExpenses(t *testing.T) []expense.Expense {
	t.Helper()
	all, err := f.store.Expenses().List(f.ctx, expense.Filter{})
	require.NoError(t, err)
	return all
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pct(email, p string) ledger.SplitInput {
	return ledger.SplitInput{Email: email, Percentage: dec(p)}
}
