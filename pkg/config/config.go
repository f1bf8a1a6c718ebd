// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Postgres *PostgresConfig

	// Destination tables
	CompaniesTable string
	PoliciesTable  string

	// Cleaning settings
	ListDelimiter string

	// Logging
	LogLevel  string
	LogFormat string
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Schema   string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Timeouts
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
}

// LoadConfig loads configuration from an optional project file and the
// environment. A .env file is honored if present; environment variables win
// over file values.
func LoadConfig(projectFile string) (*Config, error) {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if projectFile != "" {
		if err := applyProjectFile(cfg, projectFile); err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, fmt.Errorf("loading project file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Postgres: &PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			SSLMode: "disable",
			Schema:  "public",

			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,

			ConnectTimeout:   5 * time.Second,
			StatementTimeout: 5 * time.Minute,
		},
		CompaniesTable: "companies",
		PoliciesTable:  "policies",
		ListDelimiter:  ";",
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

func applyEnv(cfg *Config) {
	pg := cfg.Postgres
	pg.Host = getEnv("POSTGRES_HOST", pg.Host)
	pg.Port = getEnvAsInt("POSTGRES_PORT", pg.Port)
	pg.User = getEnv("POSTGRES_USER", pg.User)
	pg.Password = getEnv("POSTGRES_PASSWORD", pg.Password)
	pg.Database = getEnv("POSTGRES_DB", pg.Database)
	pg.SSLMode = getEnv("POSTGRES_SSLMODE", pg.SSLMode)
	pg.Schema = getEnv("POSTGRES_SCHEMA", pg.Schema)

	pg.MaxOpenConns = getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", pg.MaxOpenConns)
	pg.MaxIdleConns = getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", pg.MaxIdleConns)
	pg.ConnMaxLifetime = getEnvAsDuration("POSTGRES_CONN_MAX_LIFETIME_SECONDS", pg.ConnMaxLifetime)
	pg.ConnMaxIdleTime = getEnvAsDuration("POSTGRES_CONN_MAX_IDLE_TIME_SECONDS", pg.ConnMaxIdleTime)
	pg.ConnectTimeout = getEnvAsDuration("POSTGRES_CONNECT_TIMEOUT_SECONDS", pg.ConnectTimeout)
	pg.StatementTimeout = getEnvAsDuration("POSTGRES_STATEMENT_TIMEOUT_SECONDS", pg.StatementTimeout)

	cfg.CompaniesTable = getEnv("COMPANIES_TABLE", cfg.CompaniesTable)
	cfg.PoliciesTable = getEnv("POLICIES_TABLE", cfg.PoliciesTable)
	cfg.ListDelimiter = getEnv("LIST_DELIMITER", cfg.ListDelimiter)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
}

// Validate ensures all required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Postgres == nil {
		return errors.New("postgres configuration is required")
	}
	if c.Postgres.Database == "" {
		return errors.New("POSTGRES_DB is required")
	}
	if c.Postgres.MaxOpenConns <= 0 {
		return errors.New("max open connections must be positive")
	}
	if c.CompaniesTable == "" || c.PoliciesTable == "" {
		return errors.New("destination table names cannot be empty")
	}
	if c.ListDelimiter == "" {
		return errors.New("list delimiter cannot be empty")
	}
	return nil
}

// TableFor returns the destination table name for a kind, or an error for
// kinds without one.
func (c *Config) TableFor(kind string) (string, error) {
	switch kind {
	case "companies":
		return c.CompaniesTable, nil
	case "policies":
		return c.PoliciesTable, nil
	default:
		return "", fmt.Errorf("no destination table for kind %q", kind)
	}
}

// ConnectionString returns a formatted PostgreSQL connection string. The
// statement timeout rides the DSN as a server option so every pooled
// connection carries it, not just the one a SET would run on.
func (c *PostgresConfig) ConnectionString() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
	if c.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" options='-c statement_timeout=%d'", c.StatementTimeout.Milliseconds())
	}
	return dsn
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	seconds := getEnvAsInt(key, -1)
	if seconds < 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
