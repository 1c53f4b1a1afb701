package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/xrpdist/xrpdist/internal/config"
	"github.com/xrpdist/xrpdist/internal/store"
	"github.com/xrpdist/xrpdist/internal/trustline"
	"github.com/xrpdist/xrpdist/internal/xrpl"
)

// NewTrustlinesCommand creates the trustlines command.
func NewTrustlinesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trustlines",
		Short: "Export issuer trust lines to the input CSV",
		Long: `Export every holder of the configured currency into the input CSV,
one address,amount row per holder, with TOKEN_AMOUNT as the amount. Holders
already recorded in the distribution bookkeeping are left out.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrustlines(rootOpts)
		},
	}
}

func runTrustlines(opts *RootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if cfg.CurrencyCode == "" || cfg.IssuerAddress == "" {
		return WrapExitError(ExitCommandError, "invalid configuration",
			errors.New("CURRENCY_CODE and ISSUER_ADDRESS are required"))
	}
	amount, err := decimal.NewFromString(cfg.TokenAmount)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration",
			errors.New("TOKEN_AMOUNT must be a number"))
	}

	log := slog.Default()
	ctx := context.Background()

	st, err := store.Open(cfg.BookkeepingBackend, cfg.BookkeepingPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open bookkeeping", err)
	}
	defer st.Close()
	if err := st.Load(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to load bookkeeping", err)
	}

	client, err := xrpl.Dial(ctx, cfg.Endpoint, xrpl.Wallet{})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect to ledger", err)
	}
	defer client.Close()

	out, err := os.Create(cfg.InputCSV)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create input CSV", err)
	}
	defer out.Close()

	exporter := trustline.NewExporter(client, st, log)
	written, err := exporter.Export(ctx, out, cfg.IssuerAddress, cfg.CurrencyCode, amount)
	if err != nil {
		return WrapExitError(ExitFailure, "trust-line export failed", err)
	}

	log.Info("trust lines exported", "file", cfg.InputCSV, "rows", written)
	return nil
}
