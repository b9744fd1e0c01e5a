package mongostore

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/session"
	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

var (
	_ user.Repository    = (*users)(nil)
	_ expense.Repository = (*expenses)(nil)
	_ ledger.Repository  = (*ledgerEntries)(nil)
	_ sharing.Repository = (*grants)(nil)
	_ session.Repository = (*sessions)(nil)
	_ eventlogger.Sink   = (*events)(nil)
)

func TestConnectRequiresURIAndDatabase(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	_, err := Connect(context.Background(), Config{Database: "spendwise"}, logger)
	assert.ErrorIs(t, err, ErrEmptyURI)

	_, err = Connect(context.Background(), Config{URI: "mongodb://localhost:27017"}, logger)
	assert.ErrorIs(t, err, ErrEmptyDatabase)
}

func TestExpenseDocument(t *testing.T) {
	ref := uuid.New()
	e := expense.Expense{
		ID:            uuid.New(),
		Amount:        decimal.RequireFromString("120.50"),
		Category:      "Grocery",
		Description:   "[Shared] weekly shop",
		Date:          time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC),
		OwnerID:       uuid.New(),
		OwnerEmail:    "bob@x.com",
		IsShared:      true,
		LedgerEntryID: &ref,
		CreatedAt:     time.Date(2024, 1, 15, 18, 31, 0, 0, time.UTC),
	}

	doc := toExpenseDoc(e)
	assert.Equal(t, int64(12050), doc.AmountCents)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), doc.Date)
	assert.Equal(t, ref.String(), doc.LedgerEntryID)

	back, err := doc.expense()
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(back.Amount))
	require.NotNil(t, back.LedgerEntryID)
	assert.Equal(t, ref, *back.LedgerEntryID)
	assert.Equal(t, e.OwnerID, back.OwnerID)
}

func TestExpenseDocumentOmitsMissingReference(t *testing.T) {
	e := expense.Expense{ID: uuid.New(), OwnerID: uuid.New(), Amount: decimal.NewFromInt(5)}

	raw, err := bson.Marshal(toExpenseDoc(e))
	require.NoError(t, err)
	_, err = bson.Raw(raw).LookupErr("ledger_entry_id")
	assert.Error(t, err)

	var doc expenseDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	back, err := doc.expense()
	require.NoError(t, err)
	assert.Nil(t, back.LedgerEntryID)
}

func TestEntryDocumentKeepsSplitOrder(t *testing.T) {
	entry, err := ledger.NewEntry(uuid.New(), decimal.NewFromInt(300), "Grocery", "weekly shop",
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "bob@x.com",
		[]ledger.SplitInput{
			{Email: "alice@x.com", Percentage: decimal.NewFromInt(60)},
			{Email: "bob@x.com", Percentage: decimal.NewFromInt(40)},
		})
	require.NoError(t, err)

	raw, err := bson.Marshal(toEntryDoc(entry))
	require.NoError(t, err)
	var doc entryDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))

	back, err := doc.entry()
	require.NoError(t, err)
	require.Len(t, back.Splits, 2)
	assert.Equal(t, "alice@x.com", back.Splits[0].ParticipantEmail)
	assert.True(t, decimal.NewFromInt(180).Equal(back.Splits[0].Amount))
	assert.False(t, back.Splits[0].HasPaid)
	assert.True(t, back.Splits[1].HasPaid)
	assert.Equal(t, ledger.StatusPending, back.Status)
}

func TestGrantAndEventDocuments(t *testing.T) {
	g := sharing.New(uuid.New(), "Carol@X.com", permission.LevelEdit, uuid.New())
	back, err := toGrantDoc(g).grant()
	require.NoError(t, err)
	assert.Equal(t, "carol@x.com", back.GranteeEmail)
	assert.Equal(t, permission.LevelEdit, back.Permission)

	event := eventlogger.NewEvent(eventlogger.WithType("share.granted"), eventlogger.WithData(map[string]string{"grantee": "carol@x.com"}))
	doc, err := toEventDoc(event)
	require.NoError(t, err)
	decoded, err := doc.event()
	require.NoError(t, err)
	assert.JSONEq(t, `{"grantee":"carol@x.com"}`, string(decoded.Data.(json.RawMessage)))
}

func TestExpenseFilter(t *testing.T) {
	owner := uuid.New()
	shared := true
	from, to := expense.Month(2024, time.March)

	filter := expenseFilter(expense.Filter{OwnerID: owner, Category: "Food.Out", From: from, To: to, IsShared: &shared})

	assert.Equal(t, owner.String(), filter["owner_id"])
	assert.Equal(t, primitive.Regex{Pattern: `^Food\.Out$`, Options: "i"}, filter["category"])
	assert.Equal(t, bson.M{"$gte": from, "$lt": to}, filter["date"])
	assert.Equal(t, true, filter["is_shared"])

	assert.Empty(t, expenseFilter(expense.Filter{}))
}

// TestStoreAgainstServer runs only when SPENDWISE_TEST_MONGO_URI points at a
// disposable deployment.
func TestStoreAgainstServer(t *testing.T) {
	uri := os.Getenv("SPENDWISE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SPENDWISE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store, err := Connect(ctx, Config{URI: uri, Database: "spendwise_test_" + uuid.NewString()[:8]}, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.db.Drop(ctx)
		_ = store.Close(ctx)
	})
	require.NoError(t, store.EnsureIndexes(ctx))

	owner := uuid.New()
	entry, err := ledger.NewEntry(owner, decimal.NewFromInt(300), "Grocery", "weekly shop",
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "bob@x.com",
		[]ledger.SplitInput{
			{Email: "alice@x.com", Percentage: decimal.NewFromInt(60)},
			{Email: "bob@x.com", Percentage: decimal.NewFromInt(40)},
		})
	require.NoError(t, err)

	entries := store.Ledger()
	require.NoError(t, entries.Create(ctx, entry))
	require.NoError(t, entries.MarkPaid(ctx, entry.ID, "ALICE@x.com"))

	got, err := entries.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, got.Splits[0].HasPaid)

	found, err := entries.ListForParticipant(ctx, "alice@x.com", uuid.New())
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, entries.SetStatus(ctx, entry.ID, ledger.StatusDeleting))
	found, err = entries.ListForParticipant(ctx, "alice@x.com", uuid.New())
	require.NoError(t, err)
	assert.Empty(t, found)

	g := sharing.New(uuid.New(), "carol@x.com", permission.LevelView, owner)
	first, err := store.Grants().Upsert(ctx, g)
	require.NoError(t, err)
	g2 := sharing.New(g.ExpenseID, "carol@x.com", permission.LevelEdit, owner)
	second, err := store.Grants().Upsert(ctx, g2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, permission.LevelEdit, second.Permission)

	require.NoError(t, entries.Delete(ctx, entry.ID))
	assert.ErrorIs(t, entries.Delete(ctx, entry.ID), ledger.ErrNotFound)
}
