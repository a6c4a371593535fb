package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithMock(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("BYTCHE_LLM_MOCK", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "http", cfg.Store.Driver)
	require.Equal(t, 5*time.Second, cfg.Store.Timeout)
	require.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	require.True(t, cfg.LLM.Mock)
	require.True(t, cfg.Signal.EnforceRoles)
	require.Equal(t, "bytche.room", cfg.Bus.Subject)
	require.Equal(t, 32, cfg.SendBuffer)
	require.Equal(t, "local", cfg.Lock.Driver)
	require.Equal(t, 2*time.Minute, cfg.Lock.TTL)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
store:
  driver: redis
  redis_url: redis://localhost:6379/0
llm:
  api_key: sk-test
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("BYTCHE_STORE_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "redis", cfg.Store.Driver)
	require.Equal(t, 2*time.Second, cfg.Store.Timeout)
	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	// the lock falls back to the store's redis
	require.Equal(t, "redis://localhost:6379/0", cfg.Lock.RedisURL)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			SendBuffer: 8,
			Store:      StoreConfig{Driver: "memory"},
			LLM:        LLMConfig{Mock: true},
		}
	}

	c := base()
	require.NoError(t, c.Validate())

	c = base()
	c.Store.Driver = "sqlite"
	require.ErrorContains(t, c.Validate(), "unknown store.driver")

	c = base()
	c.Store.Driver = "redis"
	require.ErrorContains(t, c.Validate(), "redis_url")

	c = base()
	c.LLM.Mock = false
	require.ErrorContains(t, c.Validate(), "api_key")

	c = base()
	c.SendBuffer = 0
	require.Error(t, c.Validate())

	c = base()
	c.Bus.NatsURL = "nats://localhost:4222"
	require.ErrorContains(t, c.Validate(), "lock.driver redis")

	c.Lock = LockConfig{Driver: "redis", TTL: time.Minute}
	require.ErrorContains(t, c.Validate(), "lock.redis_url")

	c.Lock.RedisURL = "redis://localhost:6379/0"
	require.NoError(t, c.Validate())

	c.Lock.TTL = 0
	require.ErrorContains(t, c.Validate(), "lock.ttl")

	c.Lock.Driver = "etcd"
	require.ErrorContains(t, c.Validate(), "unknown lock.driver")
}
