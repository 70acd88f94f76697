// Package config provides centralized configuration management for the loader.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Table    TableConfig
	Ledger   LedgerConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required unless dry run)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// TableConfig holds the table source settings.
type TableConfig struct {
	// File is the K-table CSV path used when --file is not given
	File string `env:"KTABLE_FILE" default:"./data/k-table.csv"`
}

// LedgerConfig holds ledger settings.
type LedgerConfig struct {
	// Deployment names the target K-table; empty means the most recently used one
	Deployment string `env:"KTABLE_DEPLOYMENT"`

	// CallTimeout bounds a single batch write (default: 2m)
	CallTimeout time.Duration `env:"LEDGER_CALL_TIMEOUT" default:"2m"`

	// HistoryLimit is how many runs `ktable history` lists (default: 20)
	HistoryLimit int `env:"LOAD_HISTORY_LIMIT" default:"20"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
