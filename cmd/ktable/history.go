package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/ktable/internal/config"
	"github.com/JonMunkholm/ktable/internal/ledger"
	"github.com/spf13/cobra"
)

func newHistoryCommand(getConfig func() *config.Config, stdout io.Writer) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent loads of a deployment.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			ctx := cmd.Context()

			if limit <= 0 {
				limit = cfg.Ledger.HistoryLimit
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
			loads, err := dep.RecentLoads(ctx, limit)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "deployment %s\n", dep.Name())
			w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tRUN\tFILE\tSTATUS\tBATCHES\tSTAGE")
			for _, l := range loads {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
					l.StartedAt.Local().Format(time.DateTime),
					l.RunID,
					l.FileName,
					l.Status,
					l.BatchesConfirmed,
					l.BatchesTotal,
					l.Stage,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of runs to list (default: LOAD_HISTORY_LIMIT)")
	return cmd
}
