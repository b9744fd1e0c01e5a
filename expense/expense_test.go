package expense

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sijujiampugi-arch/SpendWise/storage"
)

func input(amount, category, description string, date time.Time) Input {
	return Input{
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: description,
		Date:        date,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewValidates(t *testing.T) {
	owner := uuid.New()

	_, err := New(owner, "a@x", input("0", "Fuel", "", day(2024, 1, 1)))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = New(owner, "a@x", input("10", "  ", "", day(2024, 1, 1)))
	assert.ErrorIs(t, err, ErrEmptyCategory)

	e, err := New(owner, "A@X", input("10.005", "Fuel", " tank ", time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("10.01")))
	assert.Equal(t, "tank", e.Description)
	assert.Equal(t, "a@x", e.OwnerEmail)
	assert.Equal(t, day(2024, 1, 1), e.Date)
	assert.False(t, e.LooksShared())
}

func TestApplyPreservesIdentityAndSharedFlag(t *testing.T) {
	owner := uuid.New()
	entryID := uuid.New()
	e, err := New(owner, "a@x", input("10", "Fuel", TagShared("trip"), day(2024, 1, 1)))
	require.NoError(t, err)
	e.IsShared = true
	e.LedgerEntryID = &entryID
	original := e

	require.NoError(t, e.Apply(input("25", "Transport", "road trip", day(2024, 2, 3))))
	assert.Equal(t, original.ID, e.ID)
	assert.Equal(t, original.OwnerID, e.OwnerID)
	assert.Equal(t, original.CreatedAt, e.CreatedAt)
	assert.True(t, e.IsShared)
	assert.Equal(t, &entryID, e.LedgerEntryID)
	assert.Equal(t, "[Shared] road trip", e.Description)
	assert.Equal(t, "Transport", e.Category)
	assert.Equal(t, day(2024, 2, 3), e.Date)

	assert.ErrorIs(t, e.Apply(input("-1", "Fuel", "", time.Time{})), ErrInvalidAmount)
}

func TestSharedMarker(t *testing.T) {
	tagged := TagShared("dinner")
	assert.True(t, HasSharedMarker(tagged))
	assert.Equal(t, "dinner", StripSharedMarker(tagged))
	assert.Equal(t, "dinner", StripSharedMarker("dinner"))

	legacy := Expense{Description: tagged}
	assert.True(t, legacy.LooksShared())
	assert.True(t, (&Expense{IsShared: true}).LooksShared())
}

func TestFilterMatch(t *testing.T) {
	owner := uuid.New()
	shared := true
	from, to := Month(2024, time.January)
	e := Expense{OwnerID: owner, Category: "Fuel", Date: day(2024, 1, 31), IsShared: true}

	assert.True(t, Filter{}.Match(e))
	assert.True(t, Filter{OwnerID: owner, Category: "fuel", From: from, To: to, IsShared: &shared}.Match(e))
	assert.False(t, Filter{OwnerID: uuid.New()}.Match(e))
	assert.False(t, Filter{Category: "Grocery"}.Match(e))
	assert.False(t, Filter{From: day(2024, 2, 1)}.Match(e))
	assert.False(t, Filter{To: day(2024, 1, 31)}.Match(e))
}

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(storage.OpenTest(t))
	owner := uuid.New()

	e, err := New(owner, "a@x", input("12.34", "Grocery", "milk", day(2024, 3, 5)))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(e.Amount))
	assert.Equal(t, e.Date, got.Date)
	assert.Nil(t, got.LedgerEntryID)
	assert.False(t, got.IsShared)

	require.NoError(t, got.Apply(input("20", "Dining Out", "lunch", day(2024, 3, 6))))
	require.NoError(t, repo.Update(ctx, *got))

	updated, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dining Out", updated.Category)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(20)))

	require.NoError(t, repo.Delete(ctx, e.ID))
	_, err = repo.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, e), ErrNotFound)
}

func TestRepositoryListAndLedgerReferences(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(storage.OpenTest(t))
	alice, bob := uuid.New(), uuid.New()
	entryID := uuid.New()

	create := func(owner uuid.UUID, category string, date time.Time, ref *uuid.UUID) Expense {
		e, err := New(owner, "x@x", input("10", category, "", date))
		require.NoError(t, err)
		if ref != nil {
			e.IsShared = true
			e.LedgerEntryID = ref
		}
		require.NoError(t, repo.Create(ctx, e))
		return e
	}

	create(alice, "Fuel", day(2024, 1, 10), nil)
	newest := create(alice, "Grocery", day(2024, 2, 1), &entryID)
	create(bob, "Grocery", day(2024, 1, 20), &entryID)

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID)

	from, to := Month(2024, time.January)
	jan, err := repo.List(ctx, Filter{From: from, To: to})
	require.NoError(t, err)
	assert.Len(t, jan, 2)

	mine, err := repo.List(ctx, Filter{OwnerID: alice, Category: "grocery"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, newest.ID, mine[0].ID)

	shared := true
	sharedOnly, err := repo.List(ctx, Filter{IsShared: &shared, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, sharedOnly, 1)

	siblings, err := repo.ListByLedgerEntry(ctx, entryID)
	require.NoError(t, err)
	assert.Len(t, siblings, 2)

	refs, err := repo.ListLedgerReferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{entryID}, refs)
}
