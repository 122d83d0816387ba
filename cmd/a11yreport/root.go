package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	securelog "github.com/nao1215/a11yreport/internal/log"
)

// NewRootCmd creates the root command for a11yreport.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a11yreport",
		Short: "Turn axe accessibility results into issue reports",
		Long: `a11yreport flattens axe-core accessibility results into one row per
affected element and writes them as CSV, JSON, Markdown or SARIF.

When screenshots are enabled, the scanned page is reopened in headless
Chrome and every affected element is captured. Screenshot failures never
abort a report; they are recorded as error attachments instead.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewSummaryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a redacting logger on stderr: warnings by default,
// everything with --verbose.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if jsonLogs, err := cmd.Flags().GetBool("log-json"); err == nil && jsonLogs {
		return securelog.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return securelog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}
