package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/ktable/internal/config"
	"github.com/JonMunkholm/ktable/internal/core"
	"github.com/JonMunkholm/ktable/internal/ledger"
	"github.com/spf13/cobra"
)

func newLoadCommand(getConfig func() *config.Config, stdout io.Writer) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Validate the K-table file and write it to the ledger.",
		Long: `Validate the K-table file and write it to the ledger.

Every check runs before the first batch is written. If the ledger rejects a
batch the load stops; batches already written stay applied, and running the
load again overwrites every cell.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			ctx := cmd.Context()

			if file == "" {
				file = cfg.Table.File
			}

			if dryRun {
				mem := ledger.NewMemory()
				result, err := core.NewService(mem, mem).Load(ctx, file)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "dry run ok: %d cells in %d batches (run %s)\n",
					result.Cells, result.BatchesConfirmed, result.RunID)
				return nil
			}

			name, err := deploymentName(cmd.Flags(), cfg)
			if err != nil {
				return err
			}

			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			dep, err := ledger.Open(ctx, pool, name, ledger.Options{CallTimeout: cfg.Ledger.CallTimeout})
			if err != nil {
				return err
			}
			slog.Info("using deployment", "name", dep.Name(), "id", dep.ID())

			result, err := core.NewService(dep, dep).Load(ctx, file)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "loaded %d cells in %d batches into %s (run %s, %s)\n",
				result.Cells, result.BatchesConfirmed, dep.Name(), result.RunID, result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "K-table CSV file (default: KTABLE_FILE)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the full pipeline against an in-memory ledger")
	return cmd
}
