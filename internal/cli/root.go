// Package cli wires the distribution tool's commands. Commands load the
// environment configuration, construct the engine's collaborators and report
// run results through exit codes; all batch logic lives in internal/payout.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the xrpdist CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "xrpdist",
		Short: "Reliable batch token distribution on the XRP Ledger",
		Long: `xrpdist distributes a currency from one sender account to a list of
recipient accounts, reliably enough to survive restarts: recipients already
recorded in the distribution bookkeeping are never paid twice, and every run
leaves rotated audit and failure artifacts.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewPayoutCommand(opts))
	cmd.AddCommand(NewTrustlinesCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}
