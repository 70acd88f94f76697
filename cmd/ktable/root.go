package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/ktable/internal/config"
	"github.com/JonMunkholm/ktable/internal/ledger"
	"github.com/JonMunkholm/ktable/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCommand builds the ktable command tree.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var cfg *config.Config

	rc := &cobra.Command{
		Use:   "ktable",
		Short: "Load the K-table coefficient grid into the ledger.",
		Long: `ktable reads the 91x30 K-table from a CSV export, converts every
coefficient to a 64.64 fixed-point integer, and writes the table to the
ledger in batches of 300 cells, one batch at a time.

Configuration comes from the environment (and a .env file, if present).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			slog.Debug("configuration loaded", "config", cfg.String())
			return nil
		},
	}
	rc.PersistentFlags().String("ktable", "", "Target deployment name (default: KTABLE_DEPLOYMENT, else the most recently used)")

	// cfg is populated by PersistentPreRunE before any subcommand runs.
	getConfig := func() *config.Config { return cfg }

	rc.AddCommand(newLoadCommand(getConfig, stdout))
	rc.AddCommand(newHistoryCommand(getConfig, stdout))
	rc.AddCommand(newResetCommand(getConfig, stdin, stdout))

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// deploymentName resolves --ktable, falling back to the configured default.
func deploymentName(flags *pflag.FlagSet, cfg *config.Config) (string, error) {
	name, err := flags.GetString("ktable")
	if err != nil {
		return "", fmt.Errorf("problem getting ktable flag: %w", err)
	}
	if name == "" {
		name = cfg.Ledger.Deployment
	}
	return strings.TrimSpace(name), nil
}

// connect opens the pool, verifies it, and makes sure the ledger schema exists.
func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if err := ledger.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
