package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xrpdist/xrpdist/internal/config"
	"github.com/xrpdist/xrpdist/internal/csvio"
	"github.com/xrpdist/xrpdist/internal/payout"
	"github.com/xrpdist/xrpdist/internal/schema"
	"github.com/xrpdist/xrpdist/internal/sink"
	"github.com/xrpdist/xrpdist/internal/store"
	"github.com/xrpdist/xrpdist/internal/xrpl"
)

// NewPayoutCommand creates the payout command.
func NewPayoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "payout",
		Short: "Run one batch distribution",
		Long: `Run one batch distribution from the configured input CSV.

Recipients already present in the distribution bookkeeping are skipped, every
confirmed payment is persisted before the next submission, and the audit and
failure artifacts are rotated with a run timestamp when the batch ends.

Configuration comes from environment variables; see internal/config.

Example:
  SENDER_ADDRESS=r... SENDER_SECRET=s... CURRENCY_CODE=EUR ISSUER_ADDRESS=r... xrpdist payout`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayout(rootOpts)
		},
	}
}

func runPayout(opts *RootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if err := cfg.RequireSender(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	// One run token correlates every log line and artifact of this run.
	log := slog.Default().With("run", uuid.NewString())

	requests, err := loadInput(cfg.InputCSV)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load input", err)
	}
	log.Info("input parsed and validated", "file", cfg.InputCSV, "recipients", len(requests))

	// An operator interrupt flushes bookkeeping and exits cleanly instead
	// of killing the process mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.BookkeepingBackend, cfg.BookkeepingPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open bookkeeping", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing bookkeeping", "error", closeErr)
		}
	}()
	if err := st.Load(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to load bookkeeping", err)
	}
	log.Info("bookkeeping loaded", "backend", cfg.BookkeepingBackend, "accounts", len(st.Accounts()))

	audit, err := sink.OpenAudit(cfg.OutputCSV)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open audit sink", err)
	}
	defer audit.Close()
	failures, err := sink.OpenFailures(cfg.FailedCSV)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open failure sink", err)
	}
	defer failures.Close()

	log.Info("connecting to ledger", "endpoint", cfg.Endpoint)
	client, err := xrpl.Dial(ctx, cfg.Endpoint, xrpl.Wallet{
		Address: cfg.SenderAddress,
		Secret:  cfg.SenderSecret,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect to ledger", err)
	}
	defer client.Close()

	balance, err := client.XRPBalance(ctx, cfg.SenderAddress)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read sender balance", err)
	}
	log.Info("connected to ledger", "sender", cfg.SenderAddress, "balance_xrp", balance.String())

	engine := payout.New(client, st, audit, failures, engineOptions(cfg), payout.WithLogger(log))
	result, runErr := engine.Run(ctx, requests)

	log.Info("batch distribution finished",
		"sent", result.Sent, "skipped", result.Skipped, "failed", result.Failed)
	if runErr != nil {
		return WrapExitError(ExitFailure, "batch aborted before completion", runErr)
	}
	if result.Failed > 0 {
		return WrapExitError(ExitFailure, "batch completed with failures", nil)
	}
	return nil
}

// loadInput parses and validates the input CSV into payment requests.
func loadInput(path string) ([]payout.PaymentRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csvio.ReadRows(f)
	if err != nil {
		return nil, err
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return validator.ValidateRows(rows)
}

// engineOptions maps the process configuration onto the engine's options.
func engineOptions(cfg *config.Config) *payout.Options {
	return &payout.Options{
		Currency:         cfg.CurrencyCode,
		Issuer:           cfg.IssuerAddress,
		FixedFeeDrops:    cfg.FixedFeeDrops,
		PartialPayment:   cfg.PartialPayment,
		MemoType:         cfg.MemoType,
		MemoData:         cfg.MemoData,
		CheckOpenOffers:  cfg.CheckOpenOffers,
		TransactionDelay: cfg.TransactionDelay,
		RetryCooldown:    cfg.RetryCooldown,
		FeeCeilingDrops:  cfg.FeeCeilingDrops,
		FeePause:         cfg.FeePause,
		InputCSV:         cfg.InputCSV,
	}
}
