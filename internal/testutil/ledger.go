// Package testutil provides the scripted fake ledger and the manual sleeper
// the engine tests run against.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/xrpdist/xrpdist/internal/payout"
)

// AccountScript configures the fake ledger's answers for one address.
type AccountScript struct {
	Exists    bool
	ExistsErr error

	// TrustLinePages are served one page per call, with a synthetic marker
	// between them so pagination handling is exercised.
	TrustLinePages [][]payout.TrustLine
	TrustLinesErr  error

	OfferPages [][]payout.Offer
	OffersErr  error

	// SubmitResults are consumed one per submission. When the queue runs
	// dry the last result repeats.
	SubmitResults []payout.SubmitResult
	SubmitErr     error
}

// ScriptedLedger is an in-memory payout.Ledger driven by per-address
// scripts. It records every submission so tests can assert on exactly what
// went over the wire.
type ScriptedLedger struct {
	mu       sync.Mutex
	accounts map[string]*AccountScript
	submits  map[string]int

	// Submitted holds every payment passed to Submit, in order.
	Submitted []payout.Payment
}

// NewScriptedLedger creates an empty fake ledger.
func NewScriptedLedger() *ScriptedLedger {
	return &ScriptedLedger{
		accounts: make(map[string]*AccountScript),
		submits:  make(map[string]int),
	}
}

// Script sets the answers for one address.
func (l *ScriptedLedger) Script(address string, script AccountScript) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = &script
}

// SubmitCount reports how many submissions hit the given address.
func (l *ScriptedLedger) SubmitCount(address string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.submits[address]
}

func (l *ScriptedLedger) script(address string) *AccountScript {
	if s, ok := l.accounts[address]; ok {
		return s
	}
	return &AccountScript{}
}

func (l *ScriptedLedger) AccountExists(_ context.Context, address string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.script(address)
	return s.Exists, s.ExistsErr
}

func (l *ScriptedLedger) TrustLines(_ context.Context, address, _, _, marker string) (payout.TrustLinePage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.script(address)
	if s.TrustLinesErr != nil {
		return payout.TrustLinePage{}, s.TrustLinesErr
	}
	lines, next, err := pageOf(s.TrustLinePages, marker)
	return payout.TrustLinePage{Lines: lines, Marker: next}, err
}

func (l *ScriptedLedger) OpenOffers(_ context.Context, address, marker string) (payout.OfferPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.script(address)
	if s.OffersErr != nil {
		return payout.OfferPage{}, s.OffersErr
	}
	offers, next, err := pageOf(s.OfferPages, marker)
	return payout.OfferPage{Offers: offers, Marker: next}, err
}

func (l *ScriptedLedger) Submit(_ context.Context, p payout.Payment) (payout.SubmitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Submitted = append(l.Submitted, p)

	s := l.script(p.Destination)
	n := l.submits[p.Destination]
	l.submits[p.Destination] = n + 1

	if s.SubmitErr != nil {
		return payout.SubmitResult{}, s.SubmitErr
	}
	if len(s.SubmitResults) == 0 {
		return payout.SubmitResult{}, fmt.Errorf("no scripted submit result for %s", p.Destination)
	}
	if n >= len(s.SubmitResults) {
		n = len(s.SubmitResults) - 1
	}
	return s.SubmitResults[n], nil
}

// pageOf serves pages[i] for marker "page-i" (empty marker means page 0)
// and returns the marker for the following page, if any.
func pageOf[T any](pages [][]T, marker string) ([]T, string, error) {
	if len(pages) == 0 {
		return nil, "", nil
	}
	idx := 0
	if marker != "" {
		if _, err := fmt.Sscanf(marker, "page-%d", &idx); err != nil {
			return nil, "", fmt.Errorf("bad marker %q", marker)
		}
	}
	if idx >= len(pages) {
		return nil, "", fmt.Errorf("marker %q beyond last page", marker)
	}
	next := ""
	if idx+1 < len(pages) {
		next = fmt.Sprintf("page-%d", idx+1)
	}
	return pages[idx], next, nil
}
