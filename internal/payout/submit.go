package payout

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Submitter builds and submits a single payment attempt. It never retries:
// retry policy belongs to the dispatcher. A transport-level failure comes
// back as OutcomeSubmitFailed instead of an error, so one bad request can
// never break the dispatcher's loop.
type Submitter struct {
	ledger Ledger
	opts   *Options
	log    *slog.Logger
}

// NewSubmitter creates a submitter backed by the given ledger.
func NewSubmitter(ledger Ledger, opts *Options, log *slog.Logger) *Submitter {
	return &Submitter{ledger: ledger, opts: opts, log: log}
}

// Submit sends one payment and classifies the node's response.
func (s *Submitter) Submit(ctx context.Context, req PaymentRequest) (SubmitResult, OutcomeKind) {
	payment := s.build(req)

	res, err := s.ledger.Submit(ctx, payment)
	if err != nil {
		s.log.Warn("submission failed before reaching node", "address", req.Address, "error", err)
		return SubmitResult{}, OutcomeSubmitFailed
	}

	s.log.Info("transaction response", "address", req.Address, "engine_result", res.EngineResult)
	return res, Classify(res.EngineResult)
}

// build assembles the payment instruction from the request and the run
// options: issued-currency triple or native amount, optional fixed fee,
// partial-payment flag for transfer-fee issuers, optional memo.
func (s *Submitter) build(req PaymentRequest) Payment {
	p := Payment{
		Destination:    req.Address,
		Amount:         req.Amount,
		Currency:       s.opts.Currency,
		Issuer:         s.opts.Issuer,
		FeeDrops:       s.opts.FixedFeeDrops,
		PartialPayment: s.opts.PartialPayment,
	}
	if s.opts.MemoType != "" && s.opts.MemoData != "" {
		p.MemoType = memoHex(s.opts.MemoType)
		p.MemoData = memoHex(s.opts.MemoData)
	}
	return p
}

// memoHex encodes memo text as uppercase hex of its UTF-8 bytes. Text is
// NFC-normalized first so the same configured memo always yields the same
// bytes across platforms.
func memoHex(text string) string {
	normalized := norm.NFC.String(text)
	return strings.ToUpper(hex.EncodeToString([]byte(normalized)))
}
