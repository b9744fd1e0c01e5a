// Package mongostore keeps every SpendWise collection in MongoDB. A ledger
// entry is a single document with its splits embedded, so creating one is
// atomic without a transaction.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	expensesCollection = "expenses"
	ledgerCollection   = "ledger_entries"
	grantsCollection   = "share_grants"
	sessionsCollection = "sessions"
	eventsCollection   = "events"

	defaultConnectTimeout = 10 * time.Second
)

var (
	ErrEmptyURI      = errors.New("mongo uri is empty")
	ErrEmptyDatabase = errors.New("mongo database name is empty")
)

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// Connect dials the deployment, pings it and returns a Store bound to
// cfg.Database.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, ErrEmptyURI
	}
	if cfg.Database == "" {
		return nil, ErrEmptyDatabase
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetServerSelectionTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		if disconnectErr := client.Disconnect(ctx); disconnectErr != nil {
			logger.Warn("failed to disconnect after ping failure", "error", disconnectErr)
		}
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("successfully connected to mongo", "database", cfg.Database)
	return &Store{client: client, db: client.Database(cfg.Database), logger: logger}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes creates the unique and lookup indexes every collection
// relies on. Existing indexes are left alone.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	var errs []error
	for collection, models := range indexes() {
		names, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			s.logger.Warn("failed to create mongo index", "collection", collection, "error", err)
			errs = append(errs, fmt.Errorf("creating indexes on %s: %w", collection, err))
			continue
		}
		s.logger.Debug("ensured mongo indexes", "collection", collection, "indexes", names)
	}
	return errors.Join(errs...)
}

func indexes() map[string][]mongo.IndexModel {
	unique := options.Index().SetUnique(true)
	return map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		expensesCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "ledger_entry_id", Value: 1}}},
		},
		ledgerCollection: {
			{Keys: bson.D{{Key: "splits.email", Value: 1}}},
			{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "category", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}}},
		},
		grantsCollection: {
			{Keys: bson.D{{Key: "expense_id", Value: 1}, {Key: "grantee_email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "grantee_email", Value: 1}}},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		eventsCollection: {
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) Users() *users {
	return &users{coll: s.collection(usersCollection)}
}

func (s *Store) Expenses() *expenses {
	return &expenses{coll: s.collection(expensesCollection)}
}

func (s *Store) Ledger() *ledgerEntries {
	return &ledgerEntries{coll: s.collection(ledgerCollection)}
}

func (s *Store) Grants() *grants {
	return &grants{coll: s.collection(grantsCollection)}
}

func (s *Store) Sessions(ttl time.Duration) *sessions {
	return &sessions{coll: s.collection(sessionsCollection), ttl: ttl}
}

func (s *Store) Events() *events {
	return &events{coll: s.collection(eventsCollection)}
}

// matchedOne turns a zero match count into the caller's not-found error.
func matchedOne(n int64, notFound error) error {
	if n == 0 {
		return notFound
	}
	return nil
}
