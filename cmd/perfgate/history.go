package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"perfgate/internal/config"
	"perfgate/internal/store"
	"perfgate/internal/ui"
)

// openStore is replaceable in tests.
var openStore = store.New

func newHistoryCmd() *cobra.Command {
	var limit int
	format := &formatValue{format: formatText}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently stored reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("limit must be at least 1, got %d", limit)
			}
			st, err := openStore(config.Store())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			summaries, err := st.Reports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if format.format == formatJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if summaries == nil {
					summaries = []store.Summary{}
				}
				return enc.Encode(summaries)
			}
			return ui.RenderHistory(cmd.OutOrStdout(), summaries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of reports to show")
	cmd.Flags().Var(format, "format", "Output format: text or json")
	return cmd
}
