package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xrpdist/xrpdist/internal/sink"
	"github.com/xrpdist/xrpdist/internal/store"
)

// ErrBookkeeping marks a failed durable write of the distribution store.
// Losing the record of a possibly-accepted payment is worse than an
// unfinished batch, so these errors always abort the run.
var ErrBookkeeping = errors.New("bookkeeping persist failed")

// Engine is the reliable batch payment dispatcher.
//
// It processes recipients strictly in input order, one at a time. Ledger
// transaction ordering is sequence-number based, so concurrent submissions
// from one sender would risk exactly the sequence conflicts this engine
// guards against; the single sequential loop is deliberate. The distribution
// store and the sinks are owned exclusively by the engine for the run's
// duration, so no locking is needed.
//
// Per-recipient states: pending -> skipped (already paid or ineligible) or
// submitted -> confirmed, retried or failed. Failures are contained at the
// per-recipient boundary; only sequence desync, a double fee-ceiling breach
// and bookkeeping write failures abort the whole batch.
type Engine struct {
	ledger    Ledger
	store     store.Store
	audit     *sink.Audit
	failures  *sink.Failures
	checker   *Checker
	submitter *Submitter
	opts      *Options
	sleeper   Sleeper
	log       *slog.Logger
	feeWatch  feeWatch
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithSleeper replaces the wall-clock sleeper. Tests use this to observe
// pacing delays and cooldowns without waiting for them.
func WithSleeper(s Sleeper) EngineOption {
	return func(e *Engine) { e.sleeper = s }
}

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// New creates an engine. The options struct is shared by reference with the
// eligibility checker and the submitter; it must not be mutated mid-run.
func New(ledger Ledger, st store.Store, audit *sink.Audit, failures *sink.Failures, opts *Options, engineOpts ...EngineOption) *Engine {
	e := &Engine{
		ledger:   ledger,
		store:    st,
		audit:    audit,
		failures: failures,
		opts:     opts,
		sleeper:  RealSleeper{},
		log:      slog.Default(),
	}
	for _, opt := range engineOpts {
		opt(e)
	}
	e.checker = NewChecker(ledger, opts, e.log)
	e.submitter = NewSubmitter(ledger, opts, e.log)
	e.feeWatch = feeWatch{opts: opts, sleeper: e.sleeper, log: e.log}
	return e
}

// Run processes the whole batch and returns the run counters. The returned
// error is non-nil only for fatal aborts; per-recipient failures are
// reflected in the counters and the failure sink instead.
//
// Whether the loop ends normally or on a fatal condition, the distribution
// store is flushed one final time and the sinks are rotated, so partial
// progress is never lost.
func (e *Engine) Run(ctx context.Context, inputs []PaymentRequest) (Result, error) {
	var result Result
	var runErr error

	for i, req := range inputs {
		if err := ctx.Err(); err != nil {
			e.log.Warn("run cancelled, flushing bookkeeping", "remaining", len(inputs)-i)
			runErr = err
			break
		}

		e.log.Info("processing recipient",
			"index", i+1, "total", len(inputs), "address", req.Address)

		err := e.processOne(ctx, req, &result)
		if err == nil {
			continue
		}
		if isFatal(err) {
			e.log.Error("FATAL: stopping batch, remaining recipients will not be processed",
				"address", req.Address, "error", err)
			runErr = err
			break
		}

		// Contained per-recipient failure: record it and move on.
		e.log.Error("recipient processing failed", "address", req.Address, "error", err)
		result.Failed++
		e.recordFailure(req.Address, ReasonSubmitFailed, err.Error())
	}

	if err := e.store.Persist(ctx); err != nil {
		e.log.Error("final bookkeeping flush failed", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("%w: %v", ErrBookkeeping, err)
		}
	}
	e.rotateArtifacts()

	return result, runErr
}

// processOne drives a single recipient through the state machine. Panics are
// converted to contained errors at this boundary so one bad recipient cannot
// take down the batch.
func (e *Engine) processOne(ctx context.Context, req PaymentRequest, result *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recipient panic: %v", r)
		}
	}()

	// A rerun finds previously confirmed recipients here and never submits
	// for them again.
	if e.store.Contains(req.Address) {
		e.log.Info("skipped: already processed", "address", req.Address)
		result.Skipped++
		e.recordFailure(req.Address, ReasonAlreadyProcessed, "")
		return nil
	}

	elig := e.checker.Check(ctx, req)
	if !elig.Eligible {
		e.log.Info("skipped: ineligible",
			"address", req.Address, "reason", elig.Reason, "detail", elig.Detail)
		result.Skipped++
		e.recordFailure(req.Address, elig.Reason, elig.Detail)
		return nil
	}

	// Pacing guard against node rate limits.
	if err := e.sleeper.Sleep(ctx, e.opts.TransactionDelay); err != nil {
		return err
	}

	res, kind, submitErr := e.submitWithRetry(ctx, req)

	switch kind {
	case OutcomeSubmitFailed:
		result.Failed++
		e.recordFailure(req.Address, ReasonSubmitFailed, "transport failure")
		return nil

	case OutcomeSequenceConflict:
		result.Failed++
		e.recordFailure(req.Address, ReasonSequenceConflict, res.EngineResult)
		// submitErr is ErrSequenceDesync on a repeated past-sequence
		// rejection, or a cancelled cooldown; both abort via the caller.
		return submitErr
	}

	// Everything else counts as sent: the transaction may have reached the
	// network even when the code reads as a rejection, and the store must be
	// durable before the next recipient's network call.
	if err := e.store.Add(ctx, req.Address); err != nil {
		return fmt.Errorf("%w: %v", ErrBookkeeping, err)
	}
	if err := e.store.Persist(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrBookkeeping, err)
	}
	result.Sent++

	if kind != OutcomeSuccess {
		e.log.Warn("transaction possibly failed, counted as sent",
			"address", req.Address, "engine_result", res.EngineResult)
		e.recordFailure(req.Address, ReasonSubmitFailed, res.EngineResult)
		return nil
	}

	e.log.Info("transaction successfully submitted", "address", req.Address)
	e.writeAudit(req, res)
	return e.feeWatch.observe(ctx, res.FeeDrops)
}

// isFatal reports whether an error from processOne aborts the whole batch.
func isFatal(err error) bool {
	return errors.Is(err, ErrSequenceDesync) ||
		errors.Is(err, ErrFeeCeiling) ||
		errors.Is(err, ErrBookkeeping) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (e *Engine) recordFailure(address string, reason ReasonCode, detail string) {
	if err := e.failures.Write(address, string(reason), detail); err != nil {
		e.log.Error("failed to record failure", "address", address, "error", err)
	}
}

func (e *Engine) writeAudit(req PaymentRequest, res SubmitResult) {
	row := sink.AuditRow{
		Address:          req.Address,
		Amount:           req.Amount.String(),
		EngineResult:     res.EngineResult,
		EngineResultCode: res.EngineResultCode,
		Accepted:         res.Accepted,
		Applied:          res.Applied,
		Broadcast:        res.Broadcast,
		Kept:             res.Kept,
		Queued:           res.Queued,
		TxBlob:           res.TxBlob,
	}
	if err := e.audit.Write(row); err != nil {
		// Bookkeeping is already durable for this recipient; a lost audit
		// row is logged but does not fail the recipient.
		e.log.Error("failed to write audit record", "address", req.Address, "error", err)
	}
}

// rotateArtifacts stamps the run's sinks and input snapshot so each run's
// artifacts stay individually inspectable and the next run starts fresh.
func (e *Engine) rotateArtifacts() {
	suffix := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := e.audit.Rotate(suffix); err != nil {
		e.log.Error("audit sink rotation failed", "error", err)
	}
	if err := e.failures.Rotate(suffix); err != nil {
		e.log.Error("failure sink rotation failed", "error", err)
	}
	if e.opts.InputCSV != "" {
		if err := sink.SnapshotInput(e.opts.InputCSV, suffix); err != nil {
			e.log.Error("input snapshot failed", "error", err)
		}
	}
}
