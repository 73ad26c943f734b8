package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/db"
)

func newInitCommand(a *app) *cobra.Command {
	var driver, dsn string
	var seed, force bool

	cmd := &cobra.Command{
		Use:         "init [directory]",
		Short:       "Create ledger.yaml and the database",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default()
			if driver != "" {
				cfg.Database.Driver = driver
			}
			if dsn != "" {
				cfg.Database.DSN = dsn
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runInit(cmd, a, absDir, cfg, seed, force)
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "database driver (sqlite3 or pgx)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN or SQLite file")
	cmd.Flags().BoolVar(&seed, "seed", true, "create the basic chart of accounts")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing ledger.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, a *app, dir string, cfg *config.Config, seed, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	cfgPath := filepath.Join(dir, config.DefaultFile)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Open through the normal path so the schema is created where later
	// commands will look for it.
	a.configPath = cfgPath
	if err := a.open(cmd); err != nil {
		return err
	}

	created := 0
	if seed {
		accts, err := a.accounts.EnsureBasicAccounts(cmd.Context())
		if err != nil {
			return fmt.Errorf("seeding chart of accounts: %w", err)
		}
		created = len(accts)
	}

	where := cfg.Database.DSN
	if db.Driver(cfg.Database.Driver) == db.DriverSQLite {
		where = resolveSQLitePath(dir, cfg.Database.DSN)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger at %s (%s, %d accounts created)\n", dir, where, created)
	return nil
}
