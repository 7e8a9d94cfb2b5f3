package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"perfgate/internal/adapter"
)

func newAdaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List benchmark harness adapters",
		Long: `Lists the adapters that can parse harness output, in the order the
magic adapter tries them.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, adapter.Magic)
			for _, k := range adapter.Kinds() {
				fmt.Fprintln(out, k)
			}
		},
	}
}
