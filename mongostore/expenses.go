package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/money"
)

type expenses struct {
	coll *mongo.Collection
}

var newestFirst = bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}

func (r *expenses) Create(ctx context.Context, e expense.Expense) error {
	if _, err := r.coll.InsertOne(ctx, toExpenseDoc(e)); err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}
	return nil
}

func (r *expenses) GetByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	var doc expenseDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, expense.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying expense: %w", err)
	}
	e, err := doc.expense()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *expenses) Update(ctx context.Context, e expense.Expense) error {
	update := bson.M{"$set": bson.M{
		"amount_cents": money.Cents(e.Amount),
		"category":     e.Category,
		"description":  e.Description,
		"date":         expense.Day(e.Date),
	}}
	res, err := r.coll.UpdateByID(ctx, e.ID.String(), update)
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}
	return matchedOne(res.MatchedCount, expense.ErrNotFound)
}

func (r *expenses) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	return matchedOne(res.DeletedCount, expense.ErrNotFound)
}

func (r *expenses) List(ctx context.Context, f expense.Filter) ([]expense.Expense, error) {
	opts := options.Find().SetSort(newestFirst)
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return r.find(ctx, expenseFilter(f), opts)
}

func (r *expenses) ListByLedgerEntry(ctx context.Context, entryID uuid.UUID) ([]expense.Expense, error) {
	return r.find(ctx, bson.M{"ledger_entry_id": entryID.String()}, options.Find().SetSort(newestFirst))
}

func (r *expenses) ListLedgerReferences(ctx context.Context) ([]uuid.UUID, error) {
	values, err := r.coll.Distinct(ctx, "ledger_entry_id", bson.M{"ledger_entry_id": bson.M{"$exists": true, "$ne": ""}})
	if err != nil {
		return nil, fmt.Errorf("querying ledger references: %w", err)
	}

	refs := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parsing ledger reference: %w", err)
		}
		refs = append(refs, id)
	}
	return refs, nil
}

func (r *expenses) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]expense.Expense, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	var docs []expenseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding expenses: %w", err)
	}

	out := make([]expense.Expense, 0, len(docs))
	for _, d := range docs {
		e, err := d.expense()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// expenseFilter pushes f down to the server. Category matches whole and
// case-insensitively, as in Filter.Match.
func expenseFilter(f expense.Filter) bson.M {
	filter := bson.M{}
	if f.OwnerID != uuid.Nil {
		filter["owner_id"] = f.OwnerID.String()
	}
	if f.Category != "" {
		filter["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}
	}
	date := bson.M{}
	if !f.From.IsZero() {
		date["$gte"] = f.From.UTC()
	}
	if !f.To.IsZero() {
		date["$lt"] = f.To.UTC()
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	if f.IsShared != nil {
		filter["is_shared"] = *f.IsShared
	}
	return filter
}
