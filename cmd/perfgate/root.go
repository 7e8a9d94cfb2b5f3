package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"perfgate/internal/alert"
	"perfgate/internal/config"
	"perfgate/internal/telemetry"
)

var exit = os.Exit

// newRootCmd builds the command tree. Each call returns fresh commands so
// tests can execute them in isolation.
func newRootCmd() *cobra.Command {
	var cfgFile string
	var closeLog func()

	root := &cobra.Command{
		Use:   "perfgate",
		Short: "Benchmark ingestion and regression detection",
		Long: `perfgate runs a benchmark harness, parses its output into metrics and
compares the latest run against a statistical model of earlier runs,
raising an alert when a value falls outside the computed boundary.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(cfgFile); err != nil {
				return err
			}
			if err := config.ValidateConfig(); err != nil {
				return err
			}
			closeLog = telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log_file"))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeLog != nil {
				closeLog()
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./perfgate.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	root.PersistentFlags().String("log-file", "", "Also write debug logs to this file")

	viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_file", root.PersistentFlags().Lookup("log-file"))

	root.AddCommand(newRunCmd())
	root.AddCommand(newAdaptersCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	// Wrap Execute in panic recovery for graceful shutdown
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var alertsErr *alert.AlertsError
		if !errors.As(err, &alertsErr) {
			fmt.Fprintln(os.Stderr, "Run 'perfgate --help' for usage.")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}
