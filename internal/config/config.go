// Package config loads the process configuration from environment
// variables. It is parsed exactly once at startup and handed by pointer to
// everything that needs it; nothing else in the repository reads the
// environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full environment surface of the distribution tool.
type Config struct {
	// File locations.
	InputCSV        string `env:"INPUT_CSV_FILE" envDefault:"./input.csv"`
	OutputCSV       string `env:"OUTPUT_CSV_FILE" envDefault:"./logs/output.csv"`
	FailedCSV       string `env:"FAILED_TRX_FILE" envDefault:"./logs/failed.csv"`
	BookkeepingPath string `env:"ALREADY_SENT_ACCOUNT_FILE" envDefault:"./logs/distributed_accounts.json"`

	// BookkeepingBackend selects "file" (JSON, default) or "sqlite".
	BookkeepingBackend string `env:"BOOKKEEPING_BACKEND" envDefault:"file"`

	// Ledger connection and sender identity.
	Endpoint      string `env:"XRPL_ENDPOINT" envDefault:"wss://xrplcluster.com"`
	SenderAddress string `env:"SENDER_ADDRESS"`
	SenderSecret  string `env:"SENDER_SECRET"`

	// Issued-currency mode: both must be set together. Empty means the
	// ledger's native currency.
	CurrencyCode  string `env:"CURRENCY_CODE"`
	IssuerAddress string `env:"ISSUER_ADDRESS"`

	// TokenAmount is the per-holder amount used by the trust-line export.
	TokenAmount string `env:"TOKEN_AMOUNT" envDefault:"0"`

	// Fee and memo policy.
	FixedFeeDrops  int64  `env:"FIXED_TRANSACTION_FEE" envDefault:"0"`
	PartialPayment bool   `env:"PARTIAL_PAYMENT" envDefault:"false"`
	MemoType       string `env:"MEMO_TYPE"`
	MemoData       string `env:"MEMO_DATA"`

	// Eligibility policy.
	CheckOpenOffers bool `env:"CHECK_OPEN_OFFERS" envDefault:"false"`

	// Timing.
	TransactionDelay time.Duration `env:"TRANSACTION_DELAY" envDefault:"1s"`
	RetryCooldown    time.Duration `env:"RETRY_COOLDOWN" envDefault:"10s"`
	FeeCeilingDrops  int64         `env:"FEE_CEILING_DROPS" envDefault:"10000"`
	FeePause         time.Duration `env:"FEE_PAUSE" envDefault:"1m"`
}

// Load parses the environment and validates the result. Configuration
// errors fail fast here, before any ledger connection is made.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the env tags cannot express.
func (c *Config) Validate() error {
	if (c.CurrencyCode == "") != (c.IssuerAddress == "") {
		return errors.New("CURRENCY_CODE and ISSUER_ADDRESS must be set together")
	}
	if c.FixedFeeDrops < 0 {
		return errors.New("FIXED_TRANSACTION_FEE must not be negative")
	}
	if c.FeeCeilingDrops < 0 {
		return errors.New("FEE_CEILING_DROPS must not be negative")
	}
	if c.TransactionDelay < 0 || c.RetryCooldown < 0 || c.FeePause < 0 {
		return errors.New("delays must not be negative")
	}
	return nil
}

// RequireSender checks the settings only the payout command needs.
func (c *Config) RequireSender() error {
	if c.SenderSecret == "" {
		return errors.New("SENDER_SECRET is required")
	}
	if c.SenderAddress == "" {
		return errors.New("SENDER_ADDRESS is required")
	}
	return nil
}
