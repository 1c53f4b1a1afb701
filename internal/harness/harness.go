package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrpdist/xrpdist/internal/payout"
	"github.com/xrpdist/xrpdist/internal/sink"
	"github.com/xrpdist/xrpdist/internal/store"
	"github.com/xrpdist/xrpdist/internal/testutil"
)

// Snapshot is the canonical record of one scenario run, compared against
// the scenario's golden file.
type Snapshot struct {
	ScenarioName string           `json:"scenario_name"`
	Result       payout.Result    `json:"result"`
	Fatal        string           `json:"fatal,omitempty"`
	Submissions  []SubmissionItem `json:"submissions"`
	Distributed  []string         `json:"distributed"`
}

// SubmissionItem is one payment the engine actually sent to the ledger.
type SubmissionItem struct {
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency,omitempty"`
}

// Run executes the scenario against the real engine with a scripted ledger,
// asserts its expectations and compares the run snapshot against the golden
// file testdata/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func Run(t *testing.T, scenario *Scenario) {
	t.Helper()

	ledger, err := scenario.buildLedger()
	require.NoError(t, err)
	requests, err := scenario.requests()
	require.NoError(t, err)

	dir := t.TempDir()
	st := store.NewFileStore(filepath.Join(dir, "distributed.json"))
	ctx := context.Background()
	require.NoError(t, st.Load(ctx))
	for _, addr := range scenario.PreDistributed {
		require.NoError(t, st.Add(ctx, addr))
	}
	require.NoError(t, st.Persist(ctx))

	audit, err := sink.OpenAudit(filepath.Join(dir, "output.csv"))
	require.NoError(t, err)
	failures, err := sink.OpenFailures(filepath.Join(dir, "failed.csv"))
	require.NoError(t, err)

	opts := &payout.Options{
		Currency:        scenario.Options.Currency,
		Issuer:          scenario.Options.Issuer,
		CheckOpenOffers: scenario.Options.CheckOpenOffers,
		FeeCeilingDrops: scenario.Options.FeeCeilingDrops,
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := payout.New(ledger, st, audit, failures, opts,
		payout.WithSleeper(testutil.NewManualSleeper()),
		payout.WithLogger(quiet))

	result, runErr := engine.Run(ctx, requests)

	assert.Equal(t, scenario.Expect.Sent, result.Sent, "sent count")
	assert.Equal(t, scenario.Expect.Skipped, result.Skipped, "skipped count")
	assert.Equal(t, scenario.Expect.Failed, result.Failed, "failed count")
	assert.Equal(t, scenario.Expect.Fatal, fatalKind(runErr), "fatal kind")
	assert.Equal(t, scenario.Expect.Distributed, st.Accounts(), "distributed accounts")

	snapshot := Snapshot{
		ScenarioName: scenario.Name,
		Result:       result,
		Fatal:        fatalKind(runErr),
		Submissions:  submissionItems(ledger.Submitted),
		Distributed:  st.Accounts(),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, scenario.Name, append(data, '\n'))
}

func submissionItems(payments []payout.Payment) []SubmissionItem {
	items := make([]SubmissionItem, 0, len(payments))
	for _, p := range payments {
		items = append(items, SubmissionItem{
			Destination: p.Destination,
			Amount:      p.Amount.String(),
			Currency:    p.Currency,
		})
	}
	return items
}

// fatalKind names the abort class for expectations and snapshots.
func fatalKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, payout.ErrSequenceDesync):
		return "sequence"
	case errors.Is(err, payout.ErrFeeCeiling):
		return "fee"
	case errors.Is(err, payout.ErrBookkeeping):
		return "bookkeeping"
	default:
		return fmt.Sprintf("other: %v", err)
	}
}
