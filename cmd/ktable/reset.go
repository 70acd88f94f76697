package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/ktable/internal/admin"
	"github.com/JonMunkholm/ktable/internal/config"
	"github.com/JonMunkholm/ktable/internal/ledger"
	"github.com/spf13/cobra"
)

var errResetAborted = errors.New("reset aborted")

func newResetCommand(getConfig func() *config.Config, stdin io.Reader, stdout io.Writer) *cobra.Command {
	var (
		yes         bool
		withHistory bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored cell of a deployment.",
		Long: `Delete every stored cell of a deployment so the next load starts empty.

Unless --yes is given, the deployment name must be typed to confirm.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			ctx := cmd.Context()

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

			if !yes {
				fmt.Fprintf(stdout, "Type %q to delete its K-table: ", dep.Name())
				answer, _ := bufio.NewReader(stdin).ReadString('\n')
				if strings.TrimSpace(answer) != dep.Name() {
					return errResetAborted
				}
			}

			res, err := admin.Reset(ctx, dep, withHistory)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "reset %s: %d cells, %d loads deleted\n", dep.Name(), res.Cells, res.Loads)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&withHistory, "history", false, "Also delete the load history")
	return cmd
}
