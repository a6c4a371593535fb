package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`

	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Signal SignalConfig `mapstructure:"signal"`
	Bus    BusConfig    `mapstructure:"bus"`
	Lock   LockConfig   `mapstructure:"lock"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type StoreConfig struct {
	Driver   string        `mapstructure:"driver"` // http | redis | memory
	BaseURL  string        `mapstructure:"base_url"`
	RedisURL string        `mapstructure:"redis_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
	Mock    bool          `mapstructure:"mock"`
}

type SignalConfig struct {
	EnforceRoles bool          `mapstructure:"enforce_roles"`
	Backpressure string        `mapstructure:"backpressure"` // kick | drop
	RateLimit    int           `mapstructure:"rate_limit"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
}

type BusConfig struct {
	NatsURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

type LockConfig struct {
	Driver   string        `mapstructure:"driver"` // local | redis
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("secret", "change-me")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("store.driver", "http")
	v.SetDefault("store.base_url", "http://localhost:3000")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.timeout", "5s")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.mock", false)

	v.SetDefault("signal.enforce_roles", true)
	v.SetDefault("signal.backpressure", "kick")
	v.SetDefault("signal.rate_limit", 10)
	v.SetDefault("signal.rate_interval", "10s")

	v.SetDefault("bus.nats_url", "")
	v.SetDefault("bus.subject", "bytche.room")

	v.SetDefault("lock.driver", "local")
	v.SetDefault("lock.redis_url", "")
	v.SetDefault("lock.ttl", "2m")
	v.SetDefault("lock.timeout", "60s")
}

// Load reads .env (if any), then config/config.<CONFIG_ENV>.yaml, then
// BYTCHE_* environment overrides. CONFIG_FILE points at an explicit file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("could not read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BYTCHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	fileName := os.Getenv("CONFIG_FILE")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Lock.RedisURL == "" {
		cfg.Lock.RedisURL = cfg.Store.RedisURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("store", cfg.Store.Driver).Bool("llm_mock", cfg.LLM.Mock).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "http":
		if c.Store.BaseURL == "" {
			return errors.New("config: store.base_url is required for the http driver")
		}
	case "redis":
		if c.Store.RedisURL == "" {
			return errors.New("config: store.redis_url is required for the redis driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if !c.LLM.Mock && c.LLM.APIKey == "" {
		return errors.New("config: llm.api_key is required unless llm.mock is set")
	}
	if c.SendBuffer <= 0 {
		return errors.New("config: send_buffer must be positive")
	}
	switch c.Lock.Driver {
	case "", "local":
		// room locks live in one process, so instances cannot share rooms
		if c.Bus.NatsURL != "" {
			return errors.New("config: bus.nats_url requires lock.driver redis")
		}
	case "redis":
		if c.Lock.RedisURL == "" {
			return errors.New("config: lock.redis_url (or store.redis_url) is required for the redis lock driver")
		}
		if c.Lock.TTL <= 0 {
			return errors.New("config: lock.ttl must be positive")
		}
	default:
		return fmt.Errorf("config: unknown lock.driver %q", c.Lock.Driver)
	}
	return nil
}
