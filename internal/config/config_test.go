package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/db"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Database = DatabaseConfig{Driver: "pgx", DSN: "postgres://ledger@localhost/ledger"}
	cfg.Log.Format = "json"
	cfg.Reports.DefaultPageSize = 50

	path := filepath.Join(t.TempDir(), "ledger.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "ledger.db", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 20, cfg.Reports.DefaultPageSize)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, db.Config{Driver: db.DriverSQLite, DSN: "ledger.db"}, cfg.DB())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  dsn: books.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "books.db", cfg.Database.DSN)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 20, cfg.Reports.DefaultPageSize)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDBDriver: "pgx",
		EnvDBDSN:    "postgres://x",
		EnvLogLevel: "debug",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://x", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset variables keep file values")
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_TEST_DSN=from-dotenv.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LEDGER_TEST_DSN") })

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-dotenv.db", os.Getenv("LEDGER_TEST_DSN"))

	assert.Error(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing driver", func(c *Config) { c.Database.Driver = "" }, "database.driver is required"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "not supported"},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn is required"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative page size", func(c *Config) { c.Reports.DefaultPageSize = -1 }, "default_page_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
