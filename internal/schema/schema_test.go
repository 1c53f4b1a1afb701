package schema

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrpdist/xrpdist/internal/csvio"
)

const goodAddress = "rXabc123456789ABCDEFGHJKMN"

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidateRows_BindsRequests(t *testing.T) {
	v := newValidator(t)

	requests, err := v.ValidateRows([]csvio.Row{
		{"address": goodAddress, "amount": "10"},
		{"address": goodAddress, "amount": "0.0001"},
	})
	require.NoError(t, err)
	require.Len(t, requests, 2)

	assert.Equal(t, goodAddress, requests[0].Address)
	assert.True(t, requests[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, requests[1].Amount.Equal(decimal.RequireFromString("0.0001")))
}

func TestValidateRows_RejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  csvio.Row
	}{
		{"missing address", csvio.Row{"address": "", "amount": "10"}},
		{"malformed address", csvio.Row{"address": "not-an-address", "amount": "10"}},
		{"wrong prefix", csvio.Row{"address": "xXabc123456789ABCDEFGHJKMN", "amount": "10"}},
		{"base58 exclusions", csvio.Row{"address": "rX0bc123456789ABCDEFGHJKMN", "amount": "10"}},
		{"missing amount", csvio.Row{"address": goodAddress, "amount": ""}},
		{"non-numeric amount", csvio.Row{"address": goodAddress, "amount": "ten"}},
		{"zero amount", csvio.Row{"address": goodAddress, "amount": "0"}},
		{"negative amount", csvio.Row{"address": goodAddress, "amount": "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator(t)
			_, err := v.ValidateRows([]csvio.Row{tt.row})
			assert.Error(t, err)
		})
	}
}

func TestValidateRows_ReportsRowNumber(t *testing.T) {
	v := newValidator(t)

	_, err := v.ValidateRows([]csvio.Row{
		{"address": goodAddress, "amount": "10"},
		{"address": "bogus", "amount": "10"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input row 2")
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress(goodAddress))
	assert.False(t, ValidAddress(""))
	assert.False(t, ValidAddress("rshort"))
	assert.False(t, ValidAddress("0"+goodAddress))
}
