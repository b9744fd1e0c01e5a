package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sijujiampugi-arch/SpendWise/config"
	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/expense"
	"github.com/sijujiampugi-arch/SpendWise/ledger"
	"github.com/sijujiampugi-arch/SpendWise/memstore"
	"github.com/sijujiampugi-arch/SpendWise/mongostore"
	"github.com/sijujiampugi-arch/SpendWise/session"
	"github.com/sijujiampugi-arch/SpendWise/sharing"
	"github.com/sijujiampugi-arch/SpendWise/storage"
	"github.com/sijujiampugi-arch/SpendWise/tracker"
	"github.com/sijujiampugi-arch/SpendWise/user"
)

// backend is the opened primary store.
type backend struct {
	stores   tracker.Stores
	events   eventlogger.Sink
	sessions func(ttl time.Duration) session.Repository
	ping     func(context.Context) error
	close    func()
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	switch {
	case cfg.Store.IsSQL():
		db, err := storage.Open(ctx, storage.Config{
			Driver:          cfg.Store.Driver,
			DSN:             cfg.Store.DSN,
			MaxOpenConns:    cfg.Store.MaxOpenConns,
			MaxIdleConns:    cfg.Store.MaxIdleConns,
			ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
			PingTimeout:     cfg.Store.ConnectTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		return &backend{
			stores: tracker.Stores{
				Users:    user.NewRepository(db),
				Expenses: expense.NewRepository(db),
				Ledger:   ledger.NewRepository(db),
				Grants:   sharing.NewRepository(db),
			},
			events:   eventlogger.NewSqlSink(db),
			sessions: func(ttl time.Duration) session.Repository { return session.NewRepository(db, ttl) },
			ping: func(ctx context.Context) error {
				return storage.Ping(ctx, db, cfg.Store.ConnectTimeout)
			},
			close: func() {
				if err := db.Close(); err != nil {
					logger.Error("closing database", "error", err)
				}
			},
		}, nil

	case cfg.Store.Driver == config.StoreMongo:
		store, err := mongostore.Connect(ctx, mongostore.Config{
			URI:            cfg.Store.DSN,
			Database:       cfg.Store.MongoDatabase,
			ConnectTimeout: cfg.Store.ConnectTimeout,
			MaxPoolSize:    uint64(max(cfg.Store.MaxOpenConns, 0)),
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close(context.Background())
			return nil, fmt.Errorf("creating mongo indexes: %w", err)
		}
		return &backend{
			stores: tracker.Stores{
				Users:    store.Users(),
				Expenses: store.Expenses(),
				Ledger:   store.Ledger(),
				Grants:   store.Grants(),
			},
			events:   store.Events(),
			sessions: func(ttl time.Duration) session.Repository { return store.Sessions(ttl) },
			ping:     store.Ping,
			close: func() {
				if err := store.Close(context.Background()); err != nil {
					logger.Error("closing mongo client", "error", err)
				}
			},
		}, nil

	default:
		logger.Warn("using the in-memory store, data is lost on exit")
		store := memstore.New()
		return &backend{
			stores: tracker.Stores{
				Users:    store.Users(),
				Expenses: store.Expenses(),
				Ledger:   store.Ledger(),
				Grants:   store.Grants(),
			},
			events:   store.Events(),
			sessions: store.Sessions,
			ping:     func(context.Context) error { return nil },
			close:    func() {},
		}, nil
	}
}

// openSessions returns the session repository and a func releasing
// whatever it opened beyond the primary store.
func openSessions(ctx context.Context, cfg config.Config, b *backend, logger *slog.Logger) (session.Repository, func(), error) {
	noop := func() {}

	switch cfg.Session.Store {
	case config.SessionRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Session.RedisAddr,
			DB:   cfg.Session.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("connecting to redis at %s: %w", cfg.Session.RedisAddr, err)
		}
		logger.Info("sessions stored in redis", "addr", cfg.Session.RedisAddr, "db", cfg.Session.RedisDB)
		return session.NewRedisRepository(client, cfg.Session.TTL), func() {
			if err := client.Close(); err != nil {
				logger.Error("closing redis client", "error", err)
			}
		}, nil

	case config.SessionMemory:
		if cfg.Store.Driver == config.StoreMemory {
			return b.sessions(cfg.Session.TTL), noop, nil
		}
		return memstore.New().Sessions(cfg.Session.TTL), noop, nil

	default:
		// sql and mongo live in the primary store; Validate checked the pairing.
		return b.sessions(cfg.Session.TTL), noop, nil
	}
}
