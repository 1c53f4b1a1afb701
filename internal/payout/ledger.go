package payout

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger is the engine's view of the distributed ledger node. The production
// implementation lives in internal/xrpl; tests use a scripted fake. The
// engine only depends on this interface, never on a concrete client.
//
// Paginated calls return a continuation marker that callers must follow
// until it comes back empty.
type Ledger interface {
	// AccountExists reports whether the address is a funded account on the
	// validated ledger. Deleted and never-funded accounts are
	// indistinguishable and both report false.
	AccountExists(ctx context.Context, address string) (bool, error)

	// TrustLines returns one page of the address's trust lines against the
	// given issuer, filtered to the given currency.
	TrustLines(ctx context.Context, address, issuer, currency, marker string) (TrustLinePage, error)

	// OpenOffers returns one page of the address's open offers.
	OpenOffers(ctx context.Context, address, marker string) (OfferPage, error)

	// Submit sends one signed payment and returns the node's raw response.
	// A returned error means the submission never reached the node.
	Submit(ctx context.Context, p Payment) (SubmitResult, error)
}

// TrustLine is one trust relationship as reported by the ledger.
type TrustLine struct {
	// Account is the counterparty of the line (the holder when querying the
	// issuer, the issuer when querying the holder).
	Account  string
	Currency string

	// Balance is the holder-side balance. Some nodes report it negated from
	// the issuer's perspective; consumers take the absolute value.
	Balance decimal.Decimal

	// Limit is the limit set by the queried account. Zero is the no-limit
	// sentinel on ledgers that report the limit asymmetrically; LimitPeer
	// carries the counterparty's reported limit for that case.
	Limit     decimal.Decimal
	LimitPeer decimal.Decimal
}

// TrustLinePage is one page of trust lines plus the continuation marker.
type TrustLinePage struct {
	Lines  []TrustLine
	Marker string
}

// Offer is one open order as reported by the ledger. Only the sell side is
// relevant here: TakerGets is what the offer owner gives away.
type Offer struct {
	TakerGetsCurrency string
	TakerGetsIssuer   string
	TakerGetsValue    decimal.Decimal
}

// OfferPage is one page of offers plus the continuation marker.
type OfferPage struct {
	Offers []Offer
	Marker string
}

// Payment is one fully built payment instruction.
type Payment struct {
	Destination string
	Amount      decimal.Decimal

	// Currency and Issuer are empty for native payments.
	Currency string
	Issuer   string

	// FeeDrops overrides the network fee when > 0.
	FeeDrops int64

	PartialPayment bool

	// MemoType and MemoData are uppercase hex of the configured memo's
	// UTF-8 bytes, or empty when no memo is attached.
	MemoType string
	MemoData string
}

// SubmitResult is the node's response to a submission.
type SubmitResult struct {
	EngineResult     string
	EngineResultCode int
	Accepted         bool
	Applied          bool
	Broadcast        bool
	Kept             bool
	Queued           bool
	TxBlob           string
	TxHash           string

	// FeeDrops is the fee actually charged, from the returned tx_json.
	// Zero when the node did not echo a fee.
	FeeDrops int64
}
