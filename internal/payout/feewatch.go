package payout

import (
	"context"
	"errors"
	"log/slog"
)

// ErrFeeCeiling aborts the batch after two consecutive fee-ceiling breaches.
// Back-to-back spikes are read as ledger-wide congestion the operator should
// investigate rather than pay through automatically.
var ErrFeeCeiling = errors.New("fee ceiling breached on two consecutive transactions")

// feeWatch is the transient two-strikes fee circuit breaker. It only exists
// for the duration of one run and is owned exclusively by the dispatcher.
type feeWatch struct {
	opts    *Options
	sleeper Sleeper
	log     *slog.Logger

	exceededOnce bool
}

// observe inspects the fee charged for a confirmed success. The first fee
// above the ceiling pauses the batch for the configured cooldown; a second
// breach without an intervening normal-fee transaction returns
// ErrFeeCeiling. A fee at or below the ceiling arms the breaker back down.
func (w *feeWatch) observe(ctx context.Context, feeDrops int64) error {
	if feeDrops <= 0 || w.opts.FeeCeilingDrops <= 0 {
		return nil
	}
	if feeDrops <= w.opts.FeeCeilingDrops {
		w.exceededOnce = false
		return nil
	}
	if w.exceededOnce {
		w.log.Error("fee ceiling exceeded twice in a row, stopping",
			"fee_drops", feeDrops, "ceiling_drops", w.opts.FeeCeilingDrops)
		return ErrFeeCeiling
	}
	w.exceededOnce = true
	w.log.Warn("fee above ceiling, pausing batch",
		"fee_drops", feeDrops, "ceiling_drops", w.opts.FeeCeilingDrops, "pause", w.opts.FeePause)
	return w.sleeper.Sleep(ctx, w.opts.FeePause)
}
