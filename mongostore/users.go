package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

type users struct {
	coll *mongo.Collection
}

func (r *users) Create(ctx context.Context, u *user.User) error {
	if _, err := r.coll.InsertOne(ctx, toUserDoc(u)); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *users) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": user.NormalizeEmail(email)})
}

func (r *users) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// findOne mirrors the SQL repository: a missing user is (nil, nil).
func (r *users) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return doc.user()
}

func (r *users) List(ctx context.Context) ([]user.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}

	out := make([]user.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.user()
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *users) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (r *users) UpdateName(ctx context.Context, userID uuid.UUID, name string) error {
	return r.set(ctx, userID, bson.M{"name": name})
}

func (r *users) UpdateRole(ctx context.Context, userID uuid.UUID, role permission.Role) error {
	return r.set(ctx, userID, bson.M{"role": string(role)})
}

func (r *users) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.set(ctx, userID, bson.M{"password_hash": passwordHash})
}

func (r *users) set(ctx context.Context, userID uuid.UUID, fields bson.M) error {
	res, err := r.coll.UpdateByID(ctx, userID.String(), bson.M{"$set": fields})
	if err != nil {
		return err
	}
	return matchedOne(res.MatchedCount, user.ErrNotFound)
}
