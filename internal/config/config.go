package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type LockBackend string

const (
	LockBackendNone  LockBackend = "none"
	LockBackendRedis LockBackend = "redis"
)

type Config struct {
	App struct {
		Name     string     `envconfig:"APP_NAME" default:"Routable"`
		Port     int        `envconfig:"PORT" default:"8080"`
		LogLevel slog.Level `envconfig:"LOG_LEVEL" default:"info"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"routable"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	Admin struct {
		// Admin routes are not mounted when the secret is empty.
		JWTSecret string `envconfig:"ADMIN_JWT_SECRET"`
	}

	Lock struct {
		Backend   LockBackend   `envconfig:"LOCK_BACKEND" default:"none"`
		RedisAddr string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Expiry    time.Duration `envconfig:"LOCK_EXPIRY" default:"10s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Lock.Backend {
	case LockBackendNone, LockBackendRedis:
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}

	return &cfg, nil
}
