package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBDriver      string `envconfig:"DB_DRIVER" default:"postgres"`
	DBDSN         string `envconfig:"DB_DSN"`
	ServerPort    string `envconfig:"SERVER_PORT" default:"8080"`
	SessionSecret string `envconfig:"SESSION_SECRET"`
	Environment   string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevelName  string `envconfig:"LOG_LEVEL" default:"info"`

	// directory holding uploaded contact pictures
	MediaRoot string `envconfig:"MEDIA_ROOT" default:"./media"`

	// empty disables the count cache
	RedisURL string `envconfig:"REDIS_URL"`

	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`

	DBMaxOpenConns int `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns int `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	// when both are set, serve creates the first SUPER_ADMIN
	SuperuserEmail    string `envconfig:"SUPERUSER_EMAIL"`
	SuperuserPassword string `envconfig:"SUPERUSER_PASSWORD"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is not set")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is not set")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.LogLevelName) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
