// Package order is the pipeline turning typed order requests into
// settlement notes: validate, resolve a session, build and sign the note,
// persist the record, route to the owning desk.
package order

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Side is the direction of a priced order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Kind discriminates the order union. The first group is emitted by desks
// and consumed by clients; the second by clients, the third by liquidity
// providers, both consumed by desks; FundAccount is a faucet-to-client
// payment.
type Kind string

const (
	KindKYCPassed               Kind = "KYCPassed"
	KindQuoteRequestOffer       Kind = "QuoteRequestOffer"
	KindQuoteRequestNoOffer     Kind = "QuoteRequestNoOffer"
	KindLimitBuyOrderLocked     Kind = "LimitBuyOrderLocked"
	KindLimitBuyOrderNotLocked  Kind = "LimitBuyOrderNotLocked"
	KindLimitSellOrderLocked    Kind = "LimitSellOrderLocked"
	KindLimitSellOrderNotLocked Kind = "LimitSellOrderNotLocked"

	KindQuoteRequest Kind = "QuoteRequest"
	KindLimitOrder   Kind = "LimitOrder"

	KindLiquidityOffer Kind = "LiquidityOffer"

	KindFundAccount Kind = "FundAccount"
)

// Order is one typed order request. Which fields are meaningful depends on
// Kind; Validate enforces the per-kind shape.
type Order struct {
	Kind          Kind   `json:"kind"`
	Market        string `json:"market,omitempty"`
	UUID          string `json:"uuid,omitempty"`
	Side          Side   `json:"side,omitempty"`
	Amount        uint64 `json:"amount,omitempty"`
	Price         uint64 `json:"price,omitempty"`
	TargetAccount string `json:"targetAccountId,omitempty"`
}

// field requirement sets per kind
var kindShape = map[Kind]struct {
	market, uuid, side, amount, price, target bool
}{
	KindKYCPassed:               {market: true},
	KindQuoteRequestOffer:       {market: true, uuid: true, side: true, amount: true, price: true},
	KindQuoteRequestNoOffer:     {market: true, uuid: true},
	KindLimitBuyOrderLocked:     {},
	KindLimitBuyOrderNotLocked:  {},
	KindLimitSellOrderLocked:    {},
	KindLimitSellOrderNotLocked: {},
	KindQuoteRequest:            {market: true, uuid: true, side: true, amount: true},
	KindLimitOrder:              {market: true, uuid: true, side: true, amount: true, price: true},
	KindLiquidityOffer:          {market: true, uuid: true, amount: true, price: true},
	KindFundAccount:             {amount: true, target: true},
}

// routedToDesk marks the kinds whose notes are pushed to the resolved
// desk's ingestion endpoint after signing.
var routedToDesk = map[Kind]bool{
	KindQuoteRequest:   true,
	KindLimitOrder:     true,
	KindLiquidityOffer: true,
}

// Normalize fills in a generated uuid when the caller left it empty and the
// kind carries one. The uuid stays caller-chosen otherwise.
func (o *Order) Normalize() {
	if kindShape[o.Kind].uuid && o.UUID == "" {
		o.UUID = uuid.NewString()
	}
}

// Validate checks the order's shape against its kind. It performs no
// session or network work.
func (o Order) Validate() error {
	shape, ok := kindShape[o.Kind]
	if !ok {
		return &ValidationError{Reason: fmt.Sprintf("unknown order kind %q", o.Kind)}
	}
	if shape.market {
		if _, _, err := SplitMarket(o.Market); err != nil {
			return &ValidationError{Reason: err.Error()}
		}
	}
	if shape.uuid {
		if _, err := uuid.Parse(o.UUID); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("invalid uuid %q", o.UUID)}
		}
	}
	if shape.side && o.Side != SideBuy && o.Side != SideSell {
		return &ValidationError{Reason: fmt.Sprintf("invalid side %q", o.Side)}
	}
	if shape.amount && o.Amount == 0 {
		return &ValidationError{Reason: "amount must be positive"}
	}
	if shape.price && o.Price == 0 {
		return &ValidationError{Reason: "price must be positive"}
	}
	if shape.target && o.TargetAccount == "" {
		return &ValidationError{Reason: "target account id is required"}
	}
	return nil
}

// SplitMarket parses a market label like "BTC/USD" into base and quote.
func SplitMarket(market string) (base, quote string, err error) {
	parts := strings.Split(market, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid market %q, expected BASE/QUOTE", market)
	}
	return parts[0], parts[1], nil
}
