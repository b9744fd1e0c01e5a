package tracker

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/permission"
)

func TestEditorWithoutOwnershipOrGrant(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	require.Equal(t, permission.RoleEditor, bob.Role)
	e := f.expense(t, alice, "10", "Fuel")

	caps, err := f.svc.ResolvePermissions(f.ctx, bob.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, permission.Capabilities{View: true}, caps)
}

func TestCreateExpenseRoles(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	viewer := f.register(t, "v@x")
	f.setRole(t, viewer, permission.RoleViewer)

	_, err := f.svc.CreateExpense(f.ctx, viewer.ID, expense.Input{Amount: dec("1"), Category: "Fuel"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CreateExpense(f.ctx, alice.ID, expense.Input{Amount: dec("0"), Category: "Fuel"})
	assert.ErrorIs(t, err, expense.ErrInvalidAmount)

	_, err = f.svc.CreateExpense(f.ctx, uuid.New(), expense.Input{Amount: dec("1"), Category: "Fuel"})
	assert.ErrorIs(t, err, ErrForbidden)

	e := f.expense(t, alice, "12.345", "Fuel")
	assert.True(t, e.Amount.Equal(dec("12.35")))
	assert.Equal(t, alice.Email, e.OwnerEmail)
	assert.Equal(t, 1, f.events.count(EventExpenseCreated))
}

func TestEditExpense(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	carol := f.register(t, "c@x")
	e := f.expense(t, bob, "10", "Fuel")

	in := expense.Input{
		Amount:      dec("15"),
		Category:    "Transport",
		Description: "taxi",
		Date:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := f.svc.EditExpense(f.ctx, carol.ID, e.ID, in)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ShareExpense(f.ctx, bob.ID, e.ID, "c@x", "edit")
	require.NoError(t, err)
	updated, err := f.svc.EditExpense(f.ctx, carol.ID, e.ID, in)
	require.NoError(t, err)
	assert.Equal(t, e.ID, updated.ID)
	assert.Equal(t, bob.ID, updated.OwnerID)
	assert.Equal(t, e.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Transport", updated.Category)

	stored, err := f.store.Expenses().GetByID(f.ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(dec("15")))
	assert.Equal(t, in.Date, stored.Date)

	_, err = f.svc.EditExpense(f.ctx, alice.ID, uuid.New(), in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditSharedCopyKeepsMarker(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	res := f.split(t, alice, pct("a@x", "100"))

	updated, err := f.svc.EditExpense(f.ctx, alice.ID, res.ExpenseIDs[0], expense.Input{
		Amount:      dec("310"),
		Category:    "Grocery",
		Description: "weekly shop and snacks",
	})
	require.NoError(t, err)
	assert.True(t, updated.IsShared)
	assert.Equal(t, "[Shared] weekly shop and snacks", updated.Description)
	require.NotNil(t, updated.LedgerEntryID)
}

func TestListExpensesFullVisibility(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	f.expense(t, alice, "10", "Fuel")
	mine := f.expense(t, bob, "20", "Grocery")

	items, err := f.svc.ListExpenses(f.ctx, bob.ID, ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.True(t, item.View)
		if item.ID == mine.ID {
			assert.True(t, item.IsOwnedByMe)
			assert.True(t, item.Delete)
			assert.True(t, item.Share)
		} else {
			assert.False(t, item.IsOwnedByMe)
			assert.False(t, item.Edit)
		}
	}

	fuel, err := f.svc.ListExpenses(f.ctx, bob.ID, ListOptions{Category: "fuel"})
	require.NoError(t, err)
	assert.Len(t, fuel, 1)

	owned, err := f.svc.ListExpenses(f.ctx, bob.ID, ListOptions{OwnedOnly: true, Year: 2024, Month: time.March})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, mine.ID, owned[0].ID)

	none, err := f.svc.ListExpenses(f.ctx, bob.ID, ListOptions{Year: 2023})
	require.NoError(t, err)
	assert.Empty(t, none)

	limited, err := f.svc.ListExpenses(f.ctx, bob.ID, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListExpensesWithoutFullVisibility(t *testing.T) {
	f := newFixture(t, WithResolver(permission.Resolver{}))
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	hidden := f.expense(t, alice, "10", "Fuel")
	shared := f.expense(t, alice, "11", "Fuel")
	f.expense(t, bob, "20", "Grocery")

	_, err := f.svc.ShareExpense(f.ctx, alice.ID, shared.ID, "b@x", "view")
	require.NoError(t, err)

	items, err := f.svc.ListExpenses(f.ctx, bob.ID, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	for _, item := range items {
		assert.NotEqual(t, hidden.ID, item.ID)
	}

	_, err = f.svc.GetExpense(f.ctx, bob.ID, hidden.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := f.svc.ListExpenses(f.ctx, alice.ID, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMonthlyStats(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "a@x")
	bob := f.register(t, "b@x")
	f.expense(t, alice, "10", "Fuel")
	f.expense(t, alice, "30", "Grocery")
	f.expense(t, bob, "99", "Grocery")

	stats, err := f.svc.MonthlyStats(f.ctx, alice.ID, 2024, time.March)
	require.NoError(t, err)
	assert.True(t, stats.Total.Equal(dec("40")))
	assert.Equal(t, "Grocery", stats.TopCategory)
	assert.Len(t, stats.Trend, 6)
}
