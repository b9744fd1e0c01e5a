package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type ledgerEntries struct {
	coll *mongo.Collection
}

func (r *ledgerEntries) Create(ctx context.Context, entry ledger.Entry) error {
	if _, err := r.coll.InsertOne(ctx, toEntryDoc(entry)); err != nil {
		return fmt.Errorf("inserting ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerEntries) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	var doc entryDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying ledger entry: %w", err)
	}
	entry, err := doc.entry()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerEntries) SetStatus(ctx context.Context, id uuid.UUID, status ledger.Status) error {
	update := bson.M{"$set": bson.M{"status": string(status), "updated_at": time.Now().UTC()}}
	res, err := r.coll.UpdateByID(ctx, id.String(), update)
	if err != nil {
		return fmt.Errorf("updating ledger status: %w", err)
	}
	return matchedOne(res.MatchedCount, ledger.ErrNotFound)
}

// MarkPaid flips the first split naming email through the positional
// operator; a participant appears at most once per entry.
func (r *ledgerEntries) MarkPaid(ctx context.Context, id uuid.UUID, email string) error {
	filter := bson.M{"_id": id.String(), "splits.email": user.NormalizeEmail(email)}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"splits.$.has_paid": true}})
	if err != nil {
		return fmt.Errorf("marking split paid: %w", err)
	}
	return matchedOne(res.MatchedCount, ledger.ErrNotFound)
}

func (r *ledgerEntries) ListForParticipant(ctx context.Context, email string, creator uuid.UUID) ([]ledger.Entry, error) {
	filter := bson.M{
		"status": bson.M{"$ne": string(ledger.StatusDeleting)},
		"$or": bson.A{
			bson.M{"created_by": creator.String()},
			bson.M{"splits.email": user.NormalizeEmail(email)},
		},
	}
	return r.find(ctx, filter, options.Find().SetSort(newestFirst))
}

func (r *ledgerEntries) FindByNaturalKey(ctx context.Context, key ledger.NaturalKey) ([]ledger.Entry, error) {
	filter := bson.M{
		"created_by":  key.CreatedBy.String(),
		"category":    key.Category,
		"date":        ledger.Day(key.Date),
		"description": key.Description,
	}
	return r.find(ctx, filter, options.Find())
}

func (r *ledgerEntries) ListStale(ctx context.Context, status ledger.Status, before time.Time) ([]ledger.Entry, error) {
	filter := bson.M{"status": string(status), "updated_at": bson.M{"$lt": before.UTC()}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}))
}

func (r *ledgerEntries) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("deleting ledger entry: %w", err)
	}
	return matchedOne(res.DeletedCount, ledger.ErrNotFound)
}

func (r *ledgerEntries) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]ledger.Entry, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying ledger entries: %w", err)
	}
	var docs []entryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding ledger entries: %w", err)
	}

	out := make([]ledger.Entry, 0, len(docs))
	for _, d := range docs {
		e, err := d.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
