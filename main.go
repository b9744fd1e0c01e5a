package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sijujiampugi-arch/SpendWise/api"
	"github.com/sijujiampugi-arch/SpendWise/config"
	"github.com/sijujiampugi-arch/SpendWise/eventlogger"
	"github.com/sijujiampugi-arch/SpendWise/permission"
	"github.com/sijujiampugi-arch/SpendWise/tracker"
)

func main() {
	if err := run(); err != nil {
		printErrorAndExit("spendwise", err)
	}
}

func run() error {
	var (
		configPath   string
		addr         string
		driver       string
		dsn          string
		sessionStore string
		logLevel     string
	)

	flagSet := pflag.NewFlagSet("spendwise", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flagSet.StringVar(&addr, "addr", "", "HTTP listen address")
	flagSet.StringVar(&driver, "store-driver", "", "store driver: postgres, pgx, sqlite, mongo or memory")
	flagSet.StringVar(&dsn, "store-dsn", "", "store connection string")
	flagSet.StringVar(&sessionStore, "session-store", "", "session store: sql, mongo, redis or memory")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flagSet.Changed("store-driver") {
		cfg.Store.Driver = driver
	}
	if flagSet.Changed("store-dsn") {
		cfg.Store.DSN = dsn
	}
	if flagSet.Changed("session-store") {
		cfg.Session.Store = sessionStore
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	sessions, closeSessions, err := openSessions(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	worker := eventlogger.NewWorker(store.events, cfg.Store.EventBuffer, logger)
	worker.Start()
	defer worker.Shutdown()

	svc := tracker.New(store.stores,
		tracker.WithLogger(logger),
		tracker.WithEvents(worker),
		tracker.WithResolver(permission.Resolver{FullVisibility: cfg.Engine.FullVisibility}),
	)

	server, err := api.New(svc, store.stores.Users, sessions,
		api.WithLogger(logger),
		api.WithEvents(worker),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
		api.WithStaleAfter(cfg.Engine.StaleAfter),
		api.WithHealthCheck(store.ping),
	)
	if err != nil {
		return fmt.Errorf("building api: %w", err)
	}

	go reconcileLoop(ctx, svc, cfg.Engine, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "sessions", cfg.Session.Store)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// reconcileLoop sweeps interrupted writes until ctx ends. A non-positive
// interval disables it.
func reconcileLoop(ctx context.Context, svc *tracker.Service, cfg config.EngineConfig, logger *slog.Logger) {
	if cfg.ReconcileInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Reconcile(ctx, cfg.StaleAfter); err != nil && !tracker.IsWarning(err) {
				logger.Error("reconcile failed", "error", err)
			}
		}
	}
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
