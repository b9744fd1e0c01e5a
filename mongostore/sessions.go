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

	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/session"
)

// sessions are keyed by token. The TTL index on expires_at lets the server
// drop them; GetByToken still checks expiry since that sweep is lazy.
type sessions struct {
	coll *mongo.Collection
	ttl  time.Duration
}

func (r *sessions) Create(ctx context.Context, userID uuid.UUID) (*session.Session, error) {
	s, err := session.New(userID, r.ttl)
	if err != nil {
		return nil, err
	}
	if _, err := r.coll.InsertOne(ctx, toSessionDoc(s)); err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return s, nil
}

func (r *sessions) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	var doc sessionDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": token}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, session.ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}
	s, err := doc.session()
	if err != nil {
		return nil, err
	}
	if s.Expired(time.Now()) {
		return nil, session.ErrExpiredSession
	}
	return s, nil
}

func (r *sessions) Delete(ctx context.Context, token string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": token})
	return err
}

func (r *sessions) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID.String()})
	return err
}

type events struct {
	coll *mongo.Collection
}

func (s *events) Save(ctx context.Context, e eventlogger.Event) error {
	doc, err := toEventDoc(e)
	if err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (s *events) GetByType(ctx context.Context, eventType string) ([]eventlogger.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"type": eventType}, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}

	out := make([]eventlogger.Event, 0, len(docs))
	for _, d := range docs {
		e, err := d.event()
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}
