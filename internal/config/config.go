// Package config maps the process environment onto the settings shared by
// every command. Flags set on the command line take precedence over it.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/andresmejia3/fargo/internal/types"
)

// DefaultDatabase is used when neither a DSN nor a PostgreSQL host is configured.
const DefaultDatabase = "fargo.sql3"

// Config holds the runtime settings.
type Config struct {
	// DatabaseURL is a PostgreSQL URL or an SQLite path.
	DatabaseURL string `env:"FARGO_DATABASE_URL"`

	// PostgreSQL connection parts, used when DatabaseURL is empty.
	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB"       envDefault:"fargo"`

	ImagesDir     string `env:"FARGO_IMAGES_DIR"`
	Extension     string `env:"FARGO_EXTENSION"      envDefault:".png"`
	WorldMaxID    int    `env:"FARGO_WORLD_MAX_ID"   envDefault:"25"`
	DevMaxID      int    `env:"FARGO_DEV_MAX_ID"     envDefault:"50"`
	ProtocolsFile string `env:"FARGO_PROTOCOLS_FILE"`
	LogMode       string `env:"FARGO_LOG_MODE"       envDefault:"dev"`
	ScanWorkers   int    `env:"FARGO_SCAN_WORKERS"   envDefault:"4"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values env.Parse cannot.
func (c *Config) Validate() error {
	if err := c.Partition().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.ScanWorkers < 1 {
		return fmt.Errorf("config: FARGO_SCAN_WORKERS must be positive, got %d", c.ScanWorkers)
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("config: FARGO_EXTENSION must start with a dot, got %q", c.Extension)
	}
	switch c.LogMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("config: FARGO_LOG_MODE must be dev or prod, got %q", c.LogMode)
	}
	return nil
}

// Partition returns the client id ranges of the world and dev groups.
func (c *Config) Partition() types.Partition {
	return types.Partition{WorldMax: c.WorldMaxID, DevMax: c.DevMaxID}
}

// Database resolves the store DSN: an explicit value wins, then
// FARGO_DATABASE_URL, then a PostgreSQL URL built from POSTGRES_*, then
// the local SQLite file.
func (c *Config) Database(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.PostgresHost != "" {
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
			Host:   c.PostgresHost + ":" + c.PostgresPort,
			Path:   "/" + c.PostgresDB,
		}
		return u.String()
	}
	return DefaultDatabase
}
