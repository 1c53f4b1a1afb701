// Package trustline builds a distribution input CSV from the issuer's own
// trust lines: every holder of the configured currency gets one row with
// the configured per-holder amount.
package trustline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/xrpdist/xrpdist/internal/csvio"
	"github.com/xrpdist/xrpdist/internal/payout"
	"github.com/xrpdist/xrpdist/internal/schema"
	"github.com/xrpdist/xrpdist/internal/store"
)

// Exporter writes input rows for all holders with a trust line to the
// issuer, skipping accounts the distribution store already records.
type Exporter struct {
	ledger payout.Ledger
	store  store.Store
	log    *slog.Logger
}

// NewExporter creates an exporter.
func NewExporter(ledger payout.Ledger, st store.Store, log *slog.Logger) *Exporter {
	return &Exporter{ledger: ledger, store: st, log: log}
}

// Export walks all of the issuer's trust-line pages and writes one
// address,amount row per undistributed holder. Returns the number of rows
// written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, issuer, currency string, amount decimal.Decimal) (int, error) {
	if amount.Sign() <= 0 {
		return 0, fmt.Errorf("token amount must be positive, got %s", amount)
	}

	out := csvio.NewRowWriter(w)
	if err := out.Write([]string{"address", "amount"}); err != nil {
		return 0, fmt.Errorf("write input header: %w", err)
	}

	written := 0
	marker := ""
	for {
		page, err := e.ledger.TrustLines(ctx, issuer, "", currency, marker)
		if err != nil {
			return written, fmt.Errorf("fetch issuer trust lines: %w", err)
		}
		for _, line := range page.Lines {
			holder := line.Account
			if e.store.Contains(holder) {
				e.log.Debug("skipping already-distributed holder", "address", holder)
				continue
			}
			if !schema.ValidAddress(holder) {
				e.log.Warn("skipping malformed holder address", "address", holder)
				continue
			}
			if err := out.Write([]string{holder, amount.String()}); err != nil {
				return written, fmt.Errorf("write input row: %w", err)
			}
			written++
		}
		if page.Marker == "" {
			return written, nil
		}
		marker = page.Marker
	}
}
