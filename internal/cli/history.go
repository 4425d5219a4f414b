package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/potsdam-status/internal/ledger"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show rows recorded in the CSV ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("invalid limit: %d (must be >= 0)", limit)
			}

			cfg, format, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}

			ldg, err := ledger.New(cfg.Ledger.Path, cfg.Ledger.Options()...)
			if err != nil {
				return fmt.Errorf("initializing ledger: %w", err)
			}

			rows, err := ldg.Rows()
			if err != nil {
				return fmt.Errorf("reading ledger: %w", err)
			}

			// newest last, like the file
			if limit > 0 && len(rows) > limit {
				rows = rows[len(rows)-limit:]
			}

			return WriteHistory(cmd.OutOrStdout(), rows, format)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the last N rows (0 for all)")

	return cmd
}
