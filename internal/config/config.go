package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, loaded from the environment.
type Config struct {
	AppName string `envconfig:"APP_NAME" default:"message-app"`
	Env     string `envconfig:"APP_ENV" default:"development"`
	Host    string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port    int    `envconfig:"HTTP_PORT" default:"8080"`

	// DatabaseDriver selects the store implementation: "sqlite" or "postgres".
	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"message-app.db"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`

	JWTSecret          string `envconfig:"JWT_SECRET"`
	AccessTokenMinutes int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"1440"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.DatabaseDriver {
	case "sqlite":
		// SQLitePath always has a default
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	return &cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
