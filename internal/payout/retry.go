package payout

import (
	"context"
	"errors"
)

// ErrSequenceDesync aborts the batch when the past-sequence rejection comes
// back on the resubmit as well. Blind submission after the sender's sequence
// has diverged risks unpredictable behavior, so the whole run stops.
var ErrSequenceDesync = errors.New("sender account sequence desynchronized")

// maxSubmitAttempts bounds the conflict retry: one initial attempt plus
// exactly one resubmit.
const maxSubmitAttempts = 2

// submitWithRetry drives the submit step through the conflict-retry policy.
// Sequence-conflict outcomes wait out the cooldown and resubmit once; every
// other outcome is returned as-is. A second consecutive conflict of the
// past-sequence kind returns ErrSequenceDesync.
//
// This is the single submit path for both the first attempt and the retry;
// the two are the same parameterized transition, not duplicated code.
func (e *Engine) submitWithRetry(ctx context.Context, req PaymentRequest) (SubmitResult, OutcomeKind, error) {
	var res SubmitResult
	var kind OutcomeKind

	for attempt := 1; ; attempt++ {
		res, kind = e.submitter.Submit(ctx, req)
		if kind != OutcomeSequenceConflict {
			return res, kind, nil
		}
		if attempt >= maxSubmitAttempts {
			if IsPastSequence(res.EngineResult) {
				return res, kind, ErrSequenceDesync
			}
			return res, kind, nil
		}

		e.log.Warn("sequence conflict, cooling down before resubmit",
			"address", req.Address,
			"engine_result", res.EngineResult,
			"cooldown", e.opts.RetryCooldown)
		if err := e.sleeper.Sleep(ctx, e.opts.RetryCooldown); err != nil {
			return res, kind, err
		}
	}
}
