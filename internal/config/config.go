package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledger/internal/db"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "ledger.yaml"

// Config represents the top-level ledger.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Reports  ReportsConfig  `yaml:"reports"`
}

// DatabaseConfig selects the store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite3" or "pgx"
	DSN    string `yaml:"dsn"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// ReportsConfig holds report defaults.
type ReportsConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
}

// Load reads a ledger.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: string(db.DriverSQLite),
			DSN:    "ledger.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Reports: ReportsConfig{
			DefaultPageSize: 20,
		},
	}
}

// LoadEnv loads a .env file into the process environment. With an empty path
// it tries ./.env and ignores a missing file.
func LoadEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Environment variables that override file values when set.
const (
	EnvDBDriver  = "LEDGER_DB_DRIVER"
	EnvDBDSN     = "LEDGER_DB_DSN"
	EnvLogLevel  = "LEDGER_LOG_LEVEL"
	EnvLogFormat = "LEDGER_LOG_FORMAT"
)

// ApplyEnv overrides fields from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	override := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Database.Driver, EnvDBDriver)
	override(&c.Database.DSN, EnvDBDSN)
	override(&c.Log.Level, EnvLogLevel)
	override(&c.Log.Format, EnvLogFormat)
}

// Validate reports every missing or unsupported setting.
func (c *Config) Validate() error {
	var problems []string

	switch db.Driver(c.Database.Driver) {
	case db.DriverSQLite, db.DriverPostgres:
	case "":
		problems = append(problems, "database.driver is required")
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not supported (use sqlite3 or pgx)", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		problems = append(problems, "database.dsn is required")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}
	if c.Reports.DefaultPageSize < 0 {
		problems = append(problems, "reports.default_page_size must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DB returns the store settings.
func (c *Config) DB() db.Config {
	return db.Config{Driver: db.Driver(c.Database.Driver), DSN: c.Database.DSN}
}
