package xrpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/xrpdist/xrpdist/internal/payout"
)

const (
	ledgerValidated = "validated"
	pageSize        = 400

	// tfPartialPayment lets the payment deliver less than the stated amount
	// when the issuer applies a transfer fee.
	tfPartialPayment = 0x00020000
)

const dropsPerXRP = 1_000_000

// XRPBalance returns the address's native balance in XRP. Used as the
// connect-time sanity check that we are really talking to the ledger.
func (c *Client) XRPBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	info, err := c.accountInfo(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	drops, err := decimal.NewFromString(info.AccountData.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", info.AccountData.Balance, err)
	}
	return drops.Div(decimal.NewFromInt(dropsPerXRP)), nil
}

// AccountExists reports whether the address is a funded account on the
// validated ledger. actNotFound covers both never-funded and deleted
// accounts; they are treated identically.
func (c *Client) AccountExists(ctx context.Context, address string) (bool, error) {
	info, err := c.accountInfo(ctx, address)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == "actNotFound" {
			return false, nil
		}
		return false, err
	}
	balance, err := strconv.ParseInt(info.AccountData.Balance, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse balance %q: %w", info.AccountData.Balance, err)
	}
	return balance > 0, nil
}

type accountInfoResult struct {
	AccountData struct {
		Balance  string `json:"Balance"`
		Sequence uint32 `json:"Sequence"`
	} `json:"account_data"`
}

func (c *Client) accountInfo(ctx context.Context, address string) (*accountInfoResult, error) {
	raw, err := c.call(ctx, "account_info", map[string]any{
		"account":      address,
		"ledger_index": ledgerValidated,
	})
	if err != nil {
		return nil, err
	}
	var parsed accountInfoResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse account_info: %w", err)
	}
	return &parsed, nil
}

type accountLinesResult struct {
	Lines []struct {
		Account   string `json:"account"`
		Balance   string `json:"balance"`
		Currency  string `json:"currency"`
		Limit     string `json:"limit"`
		LimitPeer string `json:"limit_peer"`
	} `json:"lines"`
	Marker json.RawMessage `json:"marker"`
}

// TrustLines returns one page of the address's trust lines. When issuer is
// non-empty the node filters to lines against that peer; currency filtering
// happens client-side because account_lines has no currency parameter.
func (c *Client) TrustLines(ctx context.Context, address, issuer, currency, marker string) (payout.TrustLinePage, error) {
	params := map[string]any{
		"account":      address,
		"ledger_index": ledgerValidated,
		"limit":        pageSize,
	}
	if issuer != "" {
		params["peer"] = issuer
	}
	if marker != "" {
		params["marker"] = markerParam(marker)
	}

	raw, err := c.call(ctx, "account_lines", params)
	if err != nil {
		return payout.TrustLinePage{}, err
	}
	var parsed accountLinesResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return payout.TrustLinePage{}, fmt.Errorf("parse account_lines: %w", err)
	}

	page := payout.TrustLinePage{Marker: markerString(parsed.Marker)}
	for _, line := range parsed.Lines {
		if currency != "" && line.Currency != currency {
			continue
		}
		balance, err := decimal.NewFromString(line.Balance)
		if err != nil {
			return payout.TrustLinePage{}, fmt.Errorf("parse line balance %q: %w", line.Balance, err)
		}
		limit, err := decimal.NewFromString(line.Limit)
		if err != nil {
			return payout.TrustLinePage{}, fmt.Errorf("parse line limit %q: %w", line.Limit, err)
		}
		limitPeer, err := decimal.NewFromString(line.LimitPeer)
		if err != nil {
			return payout.TrustLinePage{}, fmt.Errorf("parse line limit_peer %q: %w", line.LimitPeer, err)
		}
		page.Lines = append(page.Lines, payout.TrustLine{
			Account:   line.Account,
			Currency:  line.Currency,
			Balance:   balance,
			Limit:     limit,
			LimitPeer: limitPeer,
		})
	}
	return page, nil
}

type accountOffersResult struct {
	Offers []struct {
		TakerGets json.RawMessage `json:"taker_gets"`
	} `json:"offers"`
	Marker json.RawMessage `json:"marker"`
}

type issuedAmount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

// OpenOffers returns one page of the address's open offers.
func (c *Client) OpenOffers(ctx context.Context, address, marker string) (payout.OfferPage, error) {
	params := map[string]any{
		"account":      address,
		"ledger_index": ledgerValidated,
		"limit":        pageSize,
	}
	if marker != "" {
		params["marker"] = markerParam(marker)
	}

	raw, err := c.call(ctx, "account_offers", params)
	if err != nil {
		return payout.OfferPage{}, err
	}
	var parsed accountOffersResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return payout.OfferPage{}, fmt.Errorf("parse account_offers: %w", err)
	}

	page := payout.OfferPage{Marker: markerString(parsed.Marker)}
	for _, offer := range parsed.Offers {
		got, err := parseTakerGets(offer.TakerGets)
		if err != nil {
			return payout.OfferPage{}, err
		}
		page.Offers = append(page.Offers, got)
	}
	return page, nil
}

// parseTakerGets handles the two wire shapes of an offer amount: a bare
// string of drops for the native currency, or a currency/issuer/value
// object for issued currencies.
func parseTakerGets(raw json.RawMessage) (payout.Offer, error) {
	var drops string
	if err := json.Unmarshal(raw, &drops); err == nil {
		value, err := decimal.NewFromString(drops)
		if err != nil {
			return payout.Offer{}, fmt.Errorf("parse taker_gets drops %q: %w", drops, err)
		}
		return payout.Offer{TakerGetsValue: value.Div(decimal.NewFromInt(dropsPerXRP))}, nil
	}

	var issued issuedAmount
	if err := json.Unmarshal(raw, &issued); err != nil {
		return payout.Offer{}, fmt.Errorf("parse taker_gets: %w", err)
	}
	value, err := decimal.NewFromString(issued.Value)
	if err != nil {
		return payout.Offer{}, fmt.Errorf("parse taker_gets value %q: %w", issued.Value, err)
	}
	return payout.Offer{
		TakerGetsCurrency: issued.Currency,
		TakerGetsIssuer:   issued.Issuer,
		TakerGetsValue:    value,
	}, nil
}

type submitResult struct {
	EngineResult     string `json:"engine_result"`
	EngineResultCode int    `json:"engine_result_code"`
	Accepted         bool   `json:"accepted"`
	Applied          bool   `json:"applied"`
	Broadcast        bool   `json:"broadcast"`
	Kept             bool   `json:"kept"`
	Queued           bool   `json:"queued"`
	TxBlob           string `json:"tx_blob"`
	TxJSON           struct {
		Hash string `json:"hash"`
		Fee  string `json:"Fee"`
	} `json:"tx_json"`
}

// Submit builds the payment transaction and sends it through the node's
// sign-and-submit command. Local signing is out of scope; the wallet secret
// goes to the node over the (TLS) websocket exactly as the original tooling
// did.
func (c *Client) Submit(ctx context.Context, p payout.Payment) (payout.SubmitResult, error) {
	txJSON := map[string]any{
		"TransactionType": "Payment",
		"Account":         c.wallet.Address,
		"Destination":     p.Destination,
		"Amount":          amountField(p),
	}
	if p.FeeDrops > 0 {
		txJSON["Fee"] = strconv.FormatInt(p.FeeDrops, 10)
	}
	if p.PartialPayment {
		txJSON["Flags"] = tfPartialPayment
	}
	if p.MemoType != "" && p.MemoData != "" {
		txJSON["Memos"] = []map[string]any{{
			"Memo": map[string]any{
				"MemoType": p.MemoType,
				"MemoData": p.MemoData,
			},
		}}
	}

	raw, err := c.call(ctx, "submit", map[string]any{
		"tx_json": txJSON,
		"secret":  c.wallet.Secret,
	})
	if err != nil {
		return payout.SubmitResult{}, err
	}

	var parsed submitResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return payout.SubmitResult{}, fmt.Errorf("parse submit response: %w", err)
	}

	res := payout.SubmitResult{
		EngineResult:     parsed.EngineResult,
		EngineResultCode: parsed.EngineResultCode,
		Accepted:         parsed.Accepted,
		Applied:          parsed.Applied,
		Broadcast:        parsed.Broadcast,
		Kept:             parsed.Kept,
		Queued:           parsed.Queued,
		TxBlob:           parsed.TxBlob,
		TxHash:           parsed.TxJSON.Hash,
	}
	if parsed.TxJSON.Fee != "" {
		fee, err := strconv.ParseInt(parsed.TxJSON.Fee, 10, 64)
		if err != nil {
			return res, fmt.Errorf("parse fee %q: %w", parsed.TxJSON.Fee, err)
		}
		res.FeeDrops = fee
	}
	return res, nil
}

// amountField renders the payment amount in wire form: integer drops for
// native payments, a currency/issuer/value object for issued currencies.
func amountField(p payout.Payment) any {
	if p.Currency == "" {
		return p.Amount.Mul(decimal.NewFromInt(dropsPerXRP)).Truncate(0).String()
	}
	return issuedAmount{
		Currency: p.Currency,
		Issuer:   p.Issuer,
		Value:    p.Amount.String(),
	}
}
