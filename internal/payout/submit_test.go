package payout_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrpdist/xrpdist/internal/payout"
	"github.com/xrpdist/xrpdist/internal/testutil"
)

func newSubmitter(ledger payout.Ledger, opts *payout.Options) *payout.Submitter {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return payout.NewSubmitter(ledger, opts, quiet)
}

func TestSubmitter_BuildsIssuedPayment(t *testing.T) {
	ledger := testutil.NewScriptedLedger()
	ledger.Script(addrX, successScript(100))

	opts := &payout.Options{
		Currency:       "FOO",
		Issuer:         issuer,
		FixedFeeDrops:  12,
		PartialPayment: true,
		MemoType:       "text/memo",
		MemoData:       "community payout",
	}

	res, kind := newSubmitter(ledger, opts).Submit(context.Background(), payout.PaymentRequest{
		Address: addrX,
		Amount:  decimal.NewFromInt(10),
	})

	assert.Equal(t, payout.OutcomeSuccess, kind)
	assert.Equal(t, "tesSUCCESS", res.EngineResult)

	require.Len(t, ledger.Submitted, 1)
	p := ledger.Submitted[0]
	assert.Equal(t, addrX, p.Destination)
	assert.Equal(t, "FOO", p.Currency)
	assert.Equal(t, issuer, p.Issuer)
	assert.Equal(t, int64(12), p.FeeDrops)
	assert.True(t, p.PartialPayment)
	assert.Equal(t, "746578742F6D656D6F", p.MemoType)
	assert.Equal(t, "636F6D6D756E697479207061796F7574", p.MemoData)
}

func TestSubmitter_OmitsMemoWhenUnconfigured(t *testing.T) {
	ledger := testutil.NewScriptedLedger()
	ledger.Script(addrX, successScript(100))

	// Only the type is set; both fields are required for a memo.
	opts := &payout.Options{MemoType: "text/memo"}

	_, kind := newSubmitter(ledger, opts).Submit(context.Background(), payout.PaymentRequest{
		Address: addrX,
		Amount:  decimal.NewFromInt(10),
	})

	assert.Equal(t, payout.OutcomeSuccess, kind)
	require.Len(t, ledger.Submitted, 1)
	assert.Empty(t, ledger.Submitted[0].MemoType)
	assert.Empty(t, ledger.Submitted[0].MemoData)
}

func TestSubmitter_TransportErrorIsContained(t *testing.T) {
	ledger := testutil.NewScriptedLedger()
	ledger.Script(addrX, testutil.AccountScript{
		SubmitErr: errors.New("websocket closed"),
	})

	res, kind := newSubmitter(ledger, &payout.Options{}).Submit(context.Background(), payout.PaymentRequest{
		Address: addrX,
		Amount:  decimal.NewFromInt(10),
	})

	assert.Equal(t, payout.OutcomeSubmitFailed, kind)
	assert.Equal(t, payout.SubmitResult{}, res)
}
