// Package schema validates parsed input rows against an embedded CUE schema
// and binds them to typed payment requests. Everything the engine consumes
// passes through here first, so the engine can assume well-formed addresses
// and positive amounts.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/shopspring/decimal"

	"github.com/xrpdist/xrpdist/internal/csvio"
	"github.com/xrpdist/xrpdist/internal/payout"
)

//go:embed input.cue
var inputCUE string

var addressPattern = regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{24,34}$`)

// ValidAddress reports whether s looks like a classic ledger address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Validator checks input rows against the embedded row schema.
type Validator struct {
	ctx *cue.Context
	row cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(inputCUE)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile input schema: %w", err)
	}
	row := v.LookupPath(cue.ParsePath("#Row"))
	if err := row.Err(); err != nil {
		return nil, fmt.Errorf("lookup row schema: %w", err)
	}
	return &Validator{ctx: ctx, row: row}, nil
}

// ValidateRows validates every row and binds them to payment requests.
// All rows must validate; a single bad row fails the whole input so a batch
// never starts with a silently dropped recipient.
func (v *Validator) ValidateRows(rows []csvio.Row) ([]payout.PaymentRequest, error) {
	requests := make([]payout.PaymentRequest, 0, len(rows))
	for i, row := range rows {
		req, err := v.validateRow(row)
		if err != nil {
			return nil, fmt.Errorf("input row %d: %w", i+1, err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (v *Validator) validateRow(row csvio.Row) (payout.PaymentRequest, error) {
	amount, err := decimal.NewFromString(row["amount"])
	if err != nil {
		return payout.PaymentRequest{}, fmt.Errorf("amount %q is not a number", row["amount"])
	}

	// JSON is a subset of CUE, so the row can be compiled directly and
	// unified with the schema. json.Number keeps the amount's exact digits.
	encoded, err := json.Marshal(map[string]any{
		"address": row["address"],
		"amount":  json.Number(amount.String()),
	})
	if err != nil {
		return payout.PaymentRequest{}, fmt.Errorf("encode row: %w", err)
	}

	val := v.ctx.CompileBytes(encoded)
	if err := val.Err(); err != nil {
		return payout.PaymentRequest{}, fmt.Errorf("compile row: %w", err)
	}
	unified := v.row.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return payout.PaymentRequest{}, err
	}

	return payout.PaymentRequest{Address: row["address"], Amount: amount}, nil
}
