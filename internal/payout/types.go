package payout

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequest is one validated row from the input CSV: a destination
// address and a positive amount. Requests are immutable once parsed; the
// engine never modifies them.
type PaymentRequest struct {
	Address string
	Amount  decimal.Decimal
}

// ReasonCode identifies why a recipient was skipped or failed. The codes go
// verbatim into the failure sink's reason column.
type ReasonCode string

const (
	ReasonNoAccount        ReasonCode = "NO_ACCOUNT"
	ReasonNoTrustOrLimit   ReasonCode = "NO_TRUST_OR_LOW_LIMIT"
	ReasonOpenOffers       ReasonCode = "OPEN_OFFERS_BLOCKED"
	ReasonSubmitFailed     ReasonCode = "SUBMIT_FAILED"
	ReasonSequenceConflict ReasonCode = "SEQUENCE_CONFLICT"
	ReasonAlreadyProcessed ReasonCode = "ALREADY_PROCESSED"
)

// Result holds the per-run counters the engine returns to its caller.
// The caller owns process exit codes and reporting.
type Result struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Options is the engine's slice of the process configuration. It is built
// once at startup and passed by pointer into the dispatcher, the eligibility
// checker and the submitter; the engine never reads the environment itself.
type Options struct {
	// Currency and Issuer select issued-currency mode when both are set.
	// With an empty currency the engine sends the ledger's native currency.
	Currency string
	Issuer   string

	// FixedFeeDrops overrides the network fee when > 0.
	FixedFeeDrops int64

	// PartialPayment sets the partial-payment flag on every payment, for
	// issuers that apply a transfer fee.
	PartialPayment bool

	// MemoType and MemoData attach a memo when both are non-empty.
	MemoType string
	MemoData string

	// CheckOpenOffers gates the open-offers eligibility guard.
	CheckOpenOffers bool

	// TransactionDelay paces submissions against node rate limits.
	TransactionDelay time.Duration

	// RetryCooldown is the wait before the single sequence-conflict resubmit.
	RetryCooldown time.Duration

	// FeeCeilingDrops is the maximum acceptable per-transaction fee before
	// the fee breaker engages. FeePause is the cooldown after the first
	// breach.
	FeeCeilingDrops int64
	FeePause        time.Duration

	// InputCSV is snapshotted next to the rotated sinks after each run.
	InputCSV string
}
