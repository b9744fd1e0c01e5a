package tracker

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/memstore"
	"github.com/sijujiampugi-arch/SpendWise/permission"
)

func TestDeletePlainExpenseLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	f.split(t, alice, pct("a@x", "50"), pct("b@x", "50"))
	plain := f.expense(t, alice, "40", "Fuel")

	_, err := f.svc.ShareExpense(f.ctx, alice.ID, plain.ID, "b@x", "view")
	require.NoError(t, err)

	report, err := f.svc.DeleteExpense(f.ctx, alice.ID, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{plain.ID}, report.ExpensesDeleted)
	assert.Equal(t, 1, report.GrantsDeleted)
	assert.Empty(t, report.EntriesDeleted)

	_, err = f.store.Expenses().GetByID(f.ctx, plain.ID)
	assert.ErrorIs(t, err, expense.ErrNotFound)
	grants, err := f.store.Grants().ListByExpense(f.ctx, plain.ID)
	require.NoError(t, err)
	assert.Empty(t, grants)
	assert.Equal(t, 1, f.ledgerCount(t))
	assert.Len(t, f.allExpenses(t), 2)
}

func TestDeleteSharedExpenseCascades(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	f.register(t, "c@x")
	res := f.split(t, alice, pct("a@x", "60"), pct("b@x", "40"))

	var mine, theirs uuid.UUID
	for _, id := range res.ExpenseIDs {
		e, err := f.store.Expenses().GetByID(f.ctx, id)
		require.NoError(t, err)
		if e.OwnerID == alice.ID {
			mine = id
		} else {
			theirs = id
		}
	}
	_, err := f.svc.ShareExpense(f.ctx, alice.ID, mine, "c@x", "edit")
	require.NoError(t, err)
	_, err = f.svc.ShareExpense(f.ctx, alice.ID, theirs, "c@x", "view")
	require.NoError(t, err)

	report, err := f.svc.DeleteExpense(f.ctx, alice.ID, mine)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{mine, theirs}, report.ExpensesDeleted)
	assert.Equal(t, 2, report.GrantsDeleted)
	assert.Equal(t, []uuid.UUID{res.Entry.ID}, report.EntriesDeleted)
	assert.False(t, report.LegacyMatch)

	assert.Empty(t, f.allExpenses(t))
	all, err := f.store.Grants().List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = f.store.Ledger().GetByID(f.ctx, res.Entry.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, 1, f.events.count(ledger.EventEntryRemoved))

	_, err = f.svc.DeleteExpense(f.ctx, alice.ID, mine)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteLegacySharedExpenseByNaturalKey(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	entry, err := ledger.NewEntry(alice.ID, dec("50"), "Bills", "power", date, "a@x", []ledger.SplitInput{pct("a@x", "100")})
	require.NoError(t, err)
	entry.Status = ledger.StatusCommitted
	require.NoError(t, f.store.Ledger().Create(f.ctx, entry))

	other, err := ledger.NewEntry(alice.ID, dec("50"), "Bills", "water", date, "a@x", []ledger.SplitInput{pct("a@x", "100")})
	require.NoError(t, err)
	require.NoError(t, f.store.Ledger().Create(f.ctx, other))

	legacy := expense.Expense{
		ID:          uuid.New(),
		Amount:      dec("50"),
		Category:    "Bills",
		Description: expense.TagShared("power"),
		Date:        date,
		OwnerID:     alice.ID,
		OwnerEmail:  alice.Email,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, f.store.Expenses().Create(f.ctx, legacy))

	report, err := f.svc.DeleteExpense(f.ctx, alice.ID, legacy.ID)
	require.NoError(t, err)
	assert.True(t, report.LegacyMatch)
	assert.Equal(t, []uuid.UUID{entry.ID}, report.EntriesDeleted)

	_, err = f.store.Ledger().GetByID(f.ctx, entry.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = f.store.Ledger().GetByID(f.ctx, other.ID)
	assert.NoError(t, err)
}

func TestDeletePartialFailureIsReconciled(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	res := f.split(t, alice, pct("a@x", "50"), pct("b@x", "50"))
	f.store.FailAfter(memstore.OpLedgerDelete, 0, nil)

	report, err := f.svc.DeleteExpense(f.ctx, alice.ID, res.ExpenseIDs[0])
	require.Error(t, err)
	assert.True(t, IsWarning(err))
	require.NotNil(t, report)
	assert.Len(t, report.ExpensesDeleted, 2)
	assert.Empty(t, report.EntriesDeleted)

	entry, err := f.store.Ledger().GetByID(f.ctx, res.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDeleting, entry.Status)

	shared, err := f.svc.SharedExpenses(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, shared, "entries being deleted are hidden")

	f.store.ClearFaults()
	f.now = f.now.Add(time.Hour)
	rec, err := f.svc.Reconcile(f.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.DeletesFinished)
	assert.Zero(t, f.ledgerCount(t))
}

func TestDeleteChecksCapabilitiesFirst(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	carol := f.register(t, "c@x")
	f.setRole(t, carol, permission.RoleCoOwner)
	e := f.expense(t, alice, "10", "Fuel")

	_, err := f.svc.ShareExpense(f.ctx, alice.ID, e.ID, "b@x", "edit")
	require.NoError(t, err)

	_, err = f.svc.DeleteExpense(f.ctx, bob.ID, e.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Len(t, f.allExpenses(t), 1)

	_, err = f.svc.DeleteExpense(f.ctx, bob.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.DeleteExpense(f.ctx, carol.ID, e.ID)
	assert.NoError(t, err)
}
