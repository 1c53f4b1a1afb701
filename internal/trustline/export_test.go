package trustline_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrpdist/xrpdist/internal/payout"
	"github.com/xrpdist/xrpdist/internal/store"
	"github.com/xrpdist/xrpdist/internal/testutil"
	"github.com/xrpdist/xrpdist/internal/trustline"
)

const (
	issuerAddr = "rJabc123456789ABCDEFGHJKMN"
	holderA    = "rXabc123456789ABCDEFGHJKMN"
	holderB    = "rYabc123456789ABCDEFGHJKMN"
	holderC    = "rZabc123456789ABCDEFGHJKMN"
)

func holderLine(account string) payout.TrustLine {
	return payout.TrustLine{
		Account:  account,
		Currency: "FOO",
		Balance:  decimal.Zero,
		Limit:    decimal.NewFromInt(1000),
	}
}

func newStore(t *testing.T, preDistributed ...string) store.Store {
	t.Helper()
	ctx := context.Background()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "distributed.json"))
	require.NoError(t, st.Load(ctx))
	for _, addr := range preDistributed {
		require.NoError(t, st.Add(ctx, addr))
	}
	return st
}

func TestExporter_WritesUndistributedHolders(t *testing.T) {
	ledger := testutil.NewScriptedLedger()
	ledger.Script(issuerAddr, testutil.AccountScript{
		Exists: true,
		TrustLinePages: [][]payout.TrustLine{
			{holderLine(holderA), holderLine(holderB)},
			{holderLine(holderC)},
		},
	})

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	exporter := trustline.NewExporter(ledger, newStore(t, holderB), quiet)

	var sb strings.Builder
	written, err := exporter.Export(context.Background(), &sb, issuerAddr, "FOO", decimal.NewFromInt(10))
	require.NoError(t, err)

	assert.Equal(t, 2, written)
	assert.Equal(t,
		"address,amount\r\n"+
			holderA+",10\r\n"+
			holderC+",10\r\n",
		sb.String())
}

func TestExporter_SkipsMalformedHolders(t *testing.T) {
	ledger := testutil.NewScriptedLedger()
	ledger.Script(issuerAddr, testutil.AccountScript{
		Exists: true,
		TrustLinePages: [][]payout.TrustLine{
			{holderLine("bogus-address"), holderLine(holderA)},
		},
	})

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	exporter := trustline.NewExporter(ledger, newStore(t), quiet)

	var sb strings.Builder
	written, err := exporter.Export(context.Background(), &sb, issuerAddr, "FOO", decimal.NewFromInt(5))
	require.NoError(t, err)

	assert.Equal(t, 1, written)
	assert.NotContains(t, sb.String(), "bogus-address")
}

func TestExporter_RejectsNonPositiveAmount(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	exporter := trustline.NewExporter(testutil.NewScriptedLedger(), newStore(t), quiet)

	var sb strings.Builder
	_, err := exporter.Export(context.Background(), &sb, issuerAddr, "FOO", decimal.Zero)
	assert.Error(t, err)
}
