package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.True(t, cfg.Engine.FullVisibility)
	assert.Equal(t, SessionSQL, cfg.Session.Store)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spendwise.yaml")
	content := `
server:
  addr: ":9000"
store:
  driver: sqlite
  dsn: /tmp/spendwise.db
session:
  store: redis
  redis_addr: cache:6379
  ttl: 24h
engine:
  full_visibility: false
  reconcile_interval: 30s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SPENDWISE_ADDR", ":9100")
	t.Setenv("SPENDWISE_STALE_AFTER", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, SessionRedis, cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Engine.FullVisibility)
	assert.Equal(t, 30*time.Second, cfg.Engine.ReconcileInterval)
	assert.Equal(t, 2*time.Minute, cfg.Engine.StaleAfter)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 20, cfg.Store.MaxOpenConns, "unset keys keep their defaults")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		err    error
	}{
		{
			name:   "unknown driver",
			modify: func(c *Config) { c.Store.Driver = "oracle" },
			err:    ErrUnknownDriver,
		},
		{
			name:   "missing dsn",
			modify: func(c *Config) { c.Store.DSN = "" },
			err:    ErrMissingDSN,
		},
		{
			name: "sql sessions on mongo",
			modify: func(c *Config) {
				c.Store.Driver = StoreMongo
				c.Store.DSN = "mongodb://localhost"
			},
			err: ErrUnknownSessionStore,
		},
		{
			name: "mongo sessions on mongo",
			modify: func(c *Config) {
				c.Store.Driver = StoreMongo
				c.Store.DSN = "mongodb://localhost"
				c.Session.Store = SessionMongo
			},
		},
		{
			name:   "mongo sessions on postgres",
			modify: func(c *Config) { c.Session.Store = SessionMongo },
			err:    ErrUnknownSessionStore,
		},
		{
			name:   "unknown session store",
			modify: func(c *Config) { c.Session.Store = "file" },
			err:    ErrUnknownSessionStore,
		},
		{
			name: "memory everything",
			modify: func(c *Config) {
				c.Store.Driver = StoreMemory
				c.Store.DSN = ""
				c.Session.Store = SessionMemory
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReadDefersValidation(t *testing.T) {
	t.Setenv("SPENDWISE_STORE_DRIVER", "cassandra")

	cfg, err := Read("")
	require.NoError(t, err)
	assert.Equal(t, "cassandra", cfg.Store.Driver)

	_, err = Load("")
	assert.ErrorIs(t, err, ErrUnknownDriver)

	cfg.Store.Driver = StoreMemory
	cfg.Session.Store = SessionMemory
	assert.NoError(t, cfg.Validate())
}
