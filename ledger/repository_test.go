package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sijujiampugi-arch/SpendWise/storage"
)

func newTestEntry(t *testing.T, creator uuid.UUID, payer string, inputs ...SplitInput) Entry {
	t.Helper()
	entry, err := NewEntry(creator, dec("300"), "Grocery", "weekly shop", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), payer, inputs)
	require.NoError(t, err)
	return entry
}

func TestRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(storage.OpenTest(t))

	entry := newTestEntry(t, uuid.New(), "a@x",
		SplitInput{Email: "a@x", Percentage: dec("60")},
		SplitInput{Email: "b@x", Percentage: dec("40")},
	)
	require.NoError(t, repo.Create(ctx, entry))

	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.CreatedBy, got.CreatedBy)
	assert.Equal(t, StatusPending, got.Status)
	assert.True(t, got.Amount.Equal(dec("300")))
	assert.Equal(t, entry.Date, got.Date)
	require.Len(t, got.Splits, 2)
	assert.Equal(t, "a@x", got.Splits[0].ParticipantEmail)
	assert.True(t, got.Splits[0].HasPaid)
	assert.True(t, got.Splits[1].Amount.Equal(dec("120")))
	assert.True(t, got.Splits[1].Percentage.Equal(dec("40")))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryStatusAndMarkPaid(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(storage.OpenTest(t))

	entry := newTestEntry(t, uuid.New(), "a@x",
		SplitInput{Email: "a@x", Percentage: dec("50")},
		SplitInput{Email: "b@x", Percentage: dec("50")},
	)
	require.NoError(t, repo.Create(ctx, entry))

	require.NoError(t, repo.SetStatus(ctx, entry.ID, StatusCommitted))
	require.NoError(t, repo.MarkPaid(ctx, entry.ID, "B@X"))

	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, got.Status)
	split, ok := got.Participant("b@x")
	require.True(t, ok)
	assert.True(t, split.HasPaid)

	assert.ErrorIs(t, repo.MarkPaid(ctx, entry.ID, "c@x"), ErrNotFound)
	assert.ErrorIs(t, repo.SetStatus(ctx, uuid.New(), StatusCommitted), ErrNotFound)
}

func TestRepositoryListForParticipant(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(storage.OpenTest(t))
	creator := uuid.New()

	first := newTestEntry(t, creator, "a@x",
		SplitInput{Email: "a@x", Percentage: dec("50")},
		SplitInput{Email: "b@x", Percentage: dec("50")},
	)
	second := newTestEntry(t, uuid.New(), "c@x",
		SplitInput{Email: "c@x", Percentage: dec("50")},
		SplitInput{Email: "b@x", Percentage: dec("50")},
	)
	deleting := newTestEntry(t, uuid.New(), "b@x",
		SplitInput{Email: "b@x", Percentage: dec("100")},
	)
	deleting.Status = StatusDeleting
	for _, e := range []Entry{first, second, deleting} {
		require.NoError(t, repo.Create(ctx, e))
	}

	forB, err := repo.ListForParticipant(ctx, "b@x", uuid.New())
	require.NoError(t, err)
	assert.Len(t, forB, 2)

	forCreator, err := repo.ListForParticipant(ctx, "z@x", creator)
	require.NoError(t, err)
	require.Len(t, forCreator, 1)
	assert.Equal(t, first.ID, forCreator[0].ID)
	assert.Len(t, forCreator[0].Splits, 2)
}

func TestRepositoryNaturalKeyStaleAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(storage.OpenTest(t))

	entry := newTestEntry(t, uuid.New(), "a@x",
		SplitInput{Email: "a@x", Percentage: dec("50")},
		SplitInput{Email: "b@x", Percentage: dec("50")},
	)
	require.NoError(t, repo.Create(ctx, entry))

	found, err := repo.FindByNaturalKey(ctx, entry.NaturalKey())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, entry.ID, found[0].ID)

	key := entry.NaturalKey()
	key.Description = "something else"
	found, err = repo.FindByNaturalKey(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, found)

	stale, err := repo.ListStale(ctx, StatusPending, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)

	stale, err = repo.ListStale(ctx, StatusPending, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stale)

	require.NoError(t, repo.Delete(ctx, entry.ID))
	_, err = repo.GetByID(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, entry.ID), ErrNotFound)
}
