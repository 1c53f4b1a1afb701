// Package harness runs conformance scenarios against the payout engine.
//
// A scenario is a YAML file describing the ledger's scripted behavior, the
// input list and the expected outcome. Scenarios run against the real engine
// with a fake ledger and a manual clock, and their result snapshots are
// compared against golden files, so the engine's externally visible behavior
// is pinned down file by file.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shopspring/decimal"

	"github.com/xrpdist/xrpdist/internal/payout"
	"github.com/xrpdist/xrpdist/internal/testutil"
)

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Options configures the engine for the run.
	Options OptionsSpec `yaml:"options"`

	// Ledger scripts the fake ledger per address.
	Ledger map[string]AccountSpec `yaml:"ledger"`

	// Input is the batch, in order.
	Input []InputRow `yaml:"input"`

	// PreDistributed seeds the bookkeeping before the run, as if a prior
	// run had already paid these addresses.
	PreDistributed []string `yaml:"pre_distributed,omitempty"`

	// Expect is asserted after the run.
	Expect Expect `yaml:"expect"`
}

// OptionsSpec is the scenario's slice of the engine options.
type OptionsSpec struct {
	Currency        string `yaml:"currency,omitempty"`
	Issuer          string `yaml:"issuer,omitempty"`
	CheckOpenOffers bool   `yaml:"check_open_offers,omitempty"`
	FeeCeilingDrops int64  `yaml:"fee_ceiling_drops,omitempty"`
}

// AccountSpec scripts one address on the fake ledger.
type AccountSpec struct {
	Exists     bool            `yaml:"exists"`
	TrustLines []TrustLineSpec `yaml:"trustlines,omitempty"`
	Offers     []OfferSpec     `yaml:"offers,omitempty"`

	// Submit results are consumed one per submission; the last repeats.
	Submit []SubmitSpec `yaml:"submit,omitempty"`
}

// TrustLineSpec is one scripted trust line.
type TrustLineSpec struct {
	Currency  string `yaml:"currency"`
	Balance   string `yaml:"balance"`
	Limit     string `yaml:"limit"`
	LimitPeer string `yaml:"limit_peer,omitempty"`
}

// OfferSpec is one scripted open offer.
type OfferSpec struct {
	Currency string `yaml:"currency"`
	Issuer   string `yaml:"issuer"`
	Value    string `yaml:"value"`
}

// SubmitSpec is one scripted submission response.
type SubmitSpec struct {
	EngineResult string `yaml:"engine_result"`
	FeeDrops     int64  `yaml:"fee_drops,omitempty"`
}

// InputRow is one batch entry.
type InputRow struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

// Expect lists the assertions run after the scenario.
type Expect struct {
	Sent    int `yaml:"sent"`
	Skipped int `yaml:"skipped"`
	Failed  int `yaml:"failed"`

	// Fatal names the expected abort kind: "", "sequence" or "fee".
	Fatal string `yaml:"fatal,omitempty"`

	// Distributed is the bookkeeping content after the run, in order.
	Distributed []string `yaml:"distributed"`
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if len(s.Input) == 0 {
		return nil, fmt.Errorf("scenario %s: input is required", path)
	}
	return &s, nil
}

// buildLedger scripts a fake ledger from the scenario.
func (s *Scenario) buildLedger() (*testutil.ScriptedLedger, error) {
	ledger := testutil.NewScriptedLedger()
	for address, spec := range s.Ledger {
		script := testutil.AccountScript{Exists: spec.Exists}

		var lines []payout.TrustLine
		for _, tl := range spec.TrustLines {
			line, err := tl.toTrustLine()
			if err != nil {
				return nil, fmt.Errorf("scenario %s, account %s: %w", s.Name, address, err)
			}
			lines = append(lines, line)
		}
		if lines != nil {
			script.TrustLinePages = [][]payout.TrustLine{lines}
		}

		var offers []payout.Offer
		for _, of := range spec.Offers {
			offer, err := of.toOffer()
			if err != nil {
				return nil, fmt.Errorf("scenario %s, account %s: %w", s.Name, address, err)
			}
			offers = append(offers, offer)
		}
		if offers != nil {
			script.OfferPages = [][]payout.Offer{offers}
		}

		for _, sub := range spec.Submit {
			script.SubmitResults = append(script.SubmitResults, payout.SubmitResult{
				EngineResult: sub.EngineResult,
				Accepted:     sub.EngineResult == "tesSUCCESS",
				FeeDrops:     sub.FeeDrops,
			})
		}
		ledger.Script(address, script)
	}
	return ledger, nil
}

func (t TrustLineSpec) toTrustLine() (payout.TrustLine, error) {
	balance, err := decimal.NewFromString(t.Balance)
	if err != nil {
		return payout.TrustLine{}, fmt.Errorf("bad balance %q", t.Balance)
	}
	limit, err := decimal.NewFromString(t.Limit)
	if err != nil {
		return payout.TrustLine{}, fmt.Errorf("bad limit %q", t.Limit)
	}
	limitPeer := decimal.Zero
	if t.LimitPeer != "" {
		limitPeer, err = decimal.NewFromString(t.LimitPeer)
		if err != nil {
			return payout.TrustLine{}, fmt.Errorf("bad limit_peer %q", t.LimitPeer)
		}
	}
	return payout.TrustLine{
		Currency:  t.Currency,
		Balance:   balance,
		Limit:     limit,
		LimitPeer: limitPeer,
	}, nil
}

func (o OfferSpec) toOffer() (payout.Offer, error) {
	value, err := decimal.NewFromString(o.Value)
	if err != nil {
		return payout.Offer{}, fmt.Errorf("bad offer value %q", o.Value)
	}
	return payout.Offer{
		TakerGetsCurrency: o.Currency,
		TakerGetsIssuer:   o.Issuer,
		TakerGetsValue:    value,
	}, nil
}

// requests converts the scenario input into payment requests.
func (s *Scenario) requests() ([]payout.PaymentRequest, error) {
	reqs := make([]payout.PaymentRequest, 0, len(s.Input))
	for _, row := range s.Input {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: bad amount %q", s.Name, row.Amount)
		}
		reqs = append(reqs, payout.PaymentRequest{Address: row.Address, Amount: amount})
	}
	return reqs, nil
}
