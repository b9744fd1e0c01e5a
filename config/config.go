// Package config loads SpendWise configuration: defaults, then an optional
// YAML file, then SPENDWISE_* environment variables. Command-line flags are
// applied on top by main.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"

	SessionSQL    = "sql"
	SessionMongo  = "mongo"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Session SessionConfig `yaml:"session"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type StoreConfig struct {
	// Driver is one of postgres, pgx, sqlite, mongo or memory.
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MongoDatabase   string        `yaml:"mongo_database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	EventBuffer     int           `yaml:"event_buffer"`
}

type SessionConfig struct {
	// Store is sql, mongo, redis or memory. sql and mongo keep sessions in
	// the primary store and need the matching driver.
	Store     string        `yaml:"store"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

type EngineConfig struct {
	FullVisibility    bool          `yaml:"full_visibility"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	StaleAfter        time.Duration `yaml:"stale_after"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Store: StoreConfig{
			Driver:          "postgres",
			DSN:             "host=localhost port=5432 user=postgres password=postgres dbname=spendwise sslmode=disable",
			MongoDatabase:   "spendwise",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			EventBuffer:     100,
		},
		Session: SessionConfig{
			Store:     SessionSQL,
			RedisAddr: "localhost:6379",
			TTL:       7 * 24 * time.Hour,
		},
		Engine: EngineConfig{
			FullVisibility:    true,
			ReconcileInterval: time.Minute,
			StaleAfter:        5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration and validates it.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Read returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then the environment, without validating.
func Read(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("SPENDWISE_ADDR", cfg.Server.Addr)
	cfg.Server.ReadTimeout = getEnvAsDuration("SPENDWISE_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDuration("SPENDWISE_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	if origins := getEnv("SPENDWISE_CORS_ORIGINS", ""); origins != "" {
		cfg.Server.CORSOrigins = strings.Split(origins, ",")
	}

	cfg.Store.Driver = getEnv("SPENDWISE_STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = getEnv("SPENDWISE_STORE_DSN", cfg.Store.DSN)
	cfg.Store.MongoDatabase = getEnv("SPENDWISE_MONGO_DATABASE", cfg.Store.MongoDatabase)
	cfg.Store.MaxOpenConns = getEnvAsInt("SPENDWISE_DB_MAX_OPEN_CONNS", cfg.Store.MaxOpenConns)
	cfg.Store.ConnMaxLifetime = getEnvAsDuration("SPENDWISE_DB_CONN_MAX_LIFETIME", cfg.Store.ConnMaxLifetime)

	cfg.Session.Store = getEnv("SPENDWISE_SESSION_STORE", cfg.Session.Store)
	cfg.Session.RedisAddr = getEnv("SPENDWISE_REDIS_ADDR", cfg.Session.RedisAddr)
	cfg.Session.RedisDB = getEnvAsInt("SPENDWISE_REDIS_DB", cfg.Session.RedisDB)
	cfg.Session.TTL = getEnvAsDuration("SPENDWISE_SESSION_TTL", cfg.Session.TTL)

	cfg.Engine.FullVisibility = getEnvAsBool("SPENDWISE_FULL_VISIBILITY", cfg.Engine.FullVisibility)
	cfg.Engine.ReconcileInterval = getEnvAsDuration("SPENDWISE_RECONCILE_INTERVAL", cfg.Engine.ReconcileInterval)
	cfg.Engine.StaleAfter = getEnvAsDuration("SPENDWISE_STALE_AFTER", cfg.Engine.StaleAfter)

	cfg.Log.Level = getEnv("SPENDWISE_LOG_LEVEL", cfg.Log.Level)
}

var (
	ErrUnknownDriver       = errors.New("unknown store driver")
	ErrMissingDSN          = errors.New("store dsn is required")
	ErrUnknownSessionStore = errors.New("unknown session store")
)

// IsSQL reports whether the configured store driver talks SQL.
func (c StoreConfig) IsSQL() bool {
	switch c.Driver {
	case "postgres", "pgx", "sqlite":
		return true
	}
	return false
}

func (c Config) Validate() error {
	switch {
	case c.Store.IsSQL(), c.Store.Driver == StoreMongo:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w for driver %s", ErrMissingDSN, c.Store.Driver)
		}
	case c.Store.Driver == StoreMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}

	switch c.Session.Store {
	case SessionSQL:
		if !c.Store.IsSQL() {
			return fmt.Errorf("%w: sql sessions need a sql store, have %s", ErrUnknownSessionStore, c.Store.Driver)
		}
	case SessionMongo:
		if c.Store.Driver != StoreMongo {
			return fmt.Errorf("%w: mongo sessions need the mongo store, have %s", ErrUnknownSessionStore, c.Store.Driver)
		}
	case SessionRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("%w: redis address is required", ErrUnknownSessionStore)
		}
	case SessionMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSessionStore, c.Session.Store)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
