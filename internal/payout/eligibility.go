package payout

import (
	"context"
	"fmt"
	"log/slog"
)

// EligibilityResult is the checker's per-recipient decision.
type EligibilityResult struct {
	Eligible bool
	Reason   ReasonCode
	Detail   string
}

// Checker decides whether a payment should be attempted for a recipient.
// Probe failures are never fatal for the batch: any error while talking to
// the ledger makes the recipient ineligible and the dispatcher moves on.
type Checker struct {
	ledger Ledger
	opts   *Options
	log    *slog.Logger
}

// NewChecker creates an eligibility checker backed by the given ledger.
func NewChecker(ledger Ledger, opts *Options, log *slog.Logger) *Checker {
	return &Checker{ledger: ledger, opts: opts, log: log}
}

// Check runs the eligibility probes for one recipient.
//
// Existence is probed first; for issued currencies the trust-line and
// open-offer probes then run concurrently and join before the decision.
// They are independent read-only queries, but both must complete (or fail)
// before the verdict.
func (c *Checker) Check(ctx context.Context, req PaymentRequest) EligibilityResult {
	exists, err := c.ledger.AccountExists(ctx, req.Address)
	if err != nil {
		c.log.Debug("existence probe failed", "address", req.Address, "error", err)
		return EligibilityResult{Reason: ReasonNoAccount, Detail: err.Error()}
	}
	if !exists {
		return EligibilityResult{Reason: ReasonNoAccount, Detail: "account missing or deleted"}
	}

	// Native payments need no trust line.
	if c.opts.Currency == "" {
		return EligibilityResult{Eligible: true}
	}

	type probe struct {
		res EligibilityResult
		ok  bool
	}
	trustCh := make(chan probe, 1)
	offerCh := make(chan probe, 1)

	go func() {
		res, err := c.checkTrust(ctx, req)
		if err != nil {
			c.log.Debug("trust-line probe failed", "address", req.Address, "error", err)
			trustCh <- probe{res: EligibilityResult{Reason: ReasonNoTrustOrLimit, Detail: err.Error()}}
			return
		}
		trustCh <- probe{res: res, ok: res.Eligible}
	}()

	go func() {
		if !c.opts.CheckOpenOffers {
			offerCh <- probe{res: EligibilityResult{Eligible: true}, ok: true}
			return
		}
		res, err := c.checkOffers(ctx, req)
		if err != nil {
			c.log.Debug("open-offer probe failed", "address", req.Address, "error", err)
			offerCh <- probe{res: EligibilityResult{Reason: ReasonOpenOffers, Detail: err.Error()}}
			return
		}
		offerCh <- probe{res: res, ok: res.Eligible}
	}()

	trust := <-trustCh
	offer := <-offerCh

	// The offer guard wins over a sufficient trust line.
	if trust.ok && offer.ok {
		return EligibilityResult{Eligible: true}
	}
	if !offer.ok {
		return offer.res
	}
	return trust.res
}

// checkTrust verifies the recipient holds a trust line to the issuer with
// strictly more headroom than the amount about to be sent: limit minus the
// absolute balance must exceed the amount, never merely equal it.
func (c *Checker) checkTrust(ctx context.Context, req PaymentRequest) (EligibilityResult, error) {
	var lines []TrustLine
	marker := ""
	for {
		page, err := c.ledger.TrustLines(ctx, req.Address, c.opts.Issuer, c.opts.Currency, marker)
		if err != nil {
			return EligibilityResult{}, err
		}
		lines = append(lines, page.Lines...)
		if page.Marker == "" {
			break
		}
		marker = page.Marker
	}

	for _, line := range lines {
		if line.Currency != c.opts.Currency {
			continue
		}
		limit := line.Limit
		if limit.IsZero() {
			// No-limit sentinel: the holder side reports zero and the real
			// limit lives on the counterparty's side of the line.
			limit = line.LimitPeer
		}
		headroom := limit.Sub(line.Balance.Abs())
		if headroom.GreaterThan(req.Amount) {
			return EligibilityResult{Eligible: true}, nil
		}
		return EligibilityResult{
			Reason: ReasonNoTrustOrLimit,
			Detail: fmt.Sprintf("limit %s balance %s amount %s", limit, line.Balance.Abs(), req.Amount),
		}, nil
	}

	return EligibilityResult{Reason: ReasonNoTrustOrLimit, Detail: "no trust line"}, nil
}

// checkOffers rejects recipients with an open sell offer against the
// configured currency/issuer pair, regardless of their trust line.
func (c *Checker) checkOffers(ctx context.Context, req PaymentRequest) (EligibilityResult, error) {
	marker := ""
	for {
		page, err := c.ledger.OpenOffers(ctx, req.Address, marker)
		if err != nil {
			return EligibilityResult{}, err
		}
		for _, offer := range page.Offers {
			if offer.TakerGetsCurrency == c.opts.Currency && offer.TakerGetsIssuer == c.opts.Issuer {
				return EligibilityResult{
					Reason: ReasonOpenOffers,
					Detail: fmt.Sprintf("open sell offer for %s", offer.TakerGetsValue),
				}, nil
			}
		}
		if page.Marker == "" {
			break
		}
		marker = page.Marker
	}
	return EligibilityResult{Eligible: true}, nil
}
