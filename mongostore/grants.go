package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type grants struct {
	coll *mongo.Collection
}

// Upsert relies on the unique (expense_id, grantee_email) index; only the
// level of an existing grant changes.
func (r *grants) Upsert(ctx context.Context, g sharing.Grant) (*sharing.Grant, error) {
	doc := toGrantDoc(g)
	filter := bson.M{"expense_id": doc.ExpenseID, "grantee_email": doc.GranteeEmail}
	update := bson.M{
		"$set": bson.M{"permission": doc.Permission},
		"$setOnInsert": bson.M{
			"_id":        doc.ID,
			"granted_by": doc.GrantedBy,
			"created_at": doc.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored grantDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("upserting share grant: %w", err)
	}
	out, err := stored.grant()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *grants) GetByID(ctx context.Context, id uuid.UUID) (*sharing.Grant, error) {
	var doc grantDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sharing.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying share grant: %w", err)
	}
	g, err := doc.grant()
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *grants) ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]sharing.Grant, error) {
	return r.find(ctx, bson.M{"expense_id": expenseID.String()})
}

func (r *grants) ListByGrantee(ctx context.Context, email string) ([]sharing.Grant, error) {
	return r.find(ctx, bson.M{"grantee_email": user.NormalizeEmail(email)})
}

func (r *grants) List(ctx context.Context) ([]sharing.Grant, error) {
	return r.find(ctx, bson.M{})
}

func (r *grants) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("deleting share grant: %w", err)
	}
	return matchedOne(res.DeletedCount, sharing.ErrNotFound)
}

func (r *grants) DeleteByExpense(ctx context.Context, expenseID uuid.UUID) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expense_id": expenseID.String()})
	if err != nil {
		return 0, fmt.Errorf("deleting share grants: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (r *grants) find(ctx context.Context, filter bson.M) ([]sharing.Grant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying share grants: %w", err)
	}
	var docs []grantDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding share grants: %w", err)
	}

	out := make([]sharing.Grant, 0, len(docs))
	for _, d := range docs {
		g, err := d.grant()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
