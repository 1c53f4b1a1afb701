package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xrpdist/xrpdist/internal/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the input CSV without sending anything",
		Long: `Parse and validate the configured input CSV against the row schema.

Catches malformed addresses and non-positive amounts before a real run.
No ledger connection is made.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateInput(rootOpts, cmd)
		},
	}
}

func runValidateInput(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	requests, err := loadInput(cfg.InputCSV)
	if err != nil {
		return WrapExitError(ExitFailure, "input validation failed", err)
	}

	slog.Default().Info("input valid", "file", cfg.InputCSV, "recipients", len(requests))
	fmt.Fprintf(cmd.OutOrStdout(), "validated %d entries in %s\n", len(requests), cfg.InputCSV)
	return nil
}
