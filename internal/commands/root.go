package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/balance"
	"github.com/cleared-dev/ledger/internal/buildinfo"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/db"
	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/logging"
	"github.com/cleared-dev/ledger/internal/reconcile"
	"github.com/cleared-dev/ledger/internal/statement"
)

// skipStore marks commands that run without an open store.
const skipStore = "skip-store"

// app holds the services shared by every subcommand of one invocation.
type app struct {
	configPath string
	envFile    string
	output     string

	cfg        *config.Config
	log        zerolog.Logger
	conn       *db.Connection
	accounts   *accounts.Service
	journal    *journal.Service
	balances   *balance.Calculator
	statements *statement.Generator
	reconcile  *reconcile.Service
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Double-entry bookkeeping ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipStore] != "" || !cmd.Runnable() {
				return nil
			}
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultFile, "path to ledger.yaml")
	flags.StringVar(&a.envFile, "env-file", "", "load environment overrides from this .env file")
	flags.StringVarP(&a.output, "output", "o", "table", "output format: table or yaml")

	rootCmd.AddCommand(
		newInitCommand(a),
		newAccountsCommand(a),
		newPostCommand(a),
		newJournalCommand(a),
		newReportCommand(a),
		newLedgerCommand(a),
		newReconcileCommand(a),
	)

	return rootCmd
}

func (a *app) open(cmd *cobra.Command) error {
	if a.output != "table" && a.output != "yaml" {
		return fmt.Errorf("unknown output format %q (use table or yaml)", a.output)
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	conn, err := db.Open(cmd.Context(), cfg.DB())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.conn = conn
	a.accounts = accounts.NewService(conn, log)
	a.journal = journal.NewService(conn, a.accounts, log)
	a.balances = balance.NewCalculator(conn)
	a.statements = statement.NewGenerator(conn)
	a.reconcile = reconcile.NewService(conn, log)
	return nil
}

// loadConfig reads the config file, falling back to defaults when the default
// file is absent, then applies .env and environment overrides.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnv(a.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(a.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	case err != nil:
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Relative SQLite paths are relative to the config file.
	if db.Driver(cfg.Database.Driver) == db.DriverSQLite {
		cfg.Database.DSN = resolveSQLitePath(filepath.Dir(a.configPath), cfg.Database.DSN)
	}
	return cfg, nil
}

func resolveSQLitePath(base, dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(base, dsn)
}

func (a *app) close() error {
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}
