// Package account is the typed directory over platform accounts and the
// service executing account orders: wallet, desk, faucet and liquidity
// creation plus desk activation.
package account

import (
	"fmt"

	"github.com/edfixyz/mosaic/internal/store"
)

// Leg is one side of a traded pair: the token code and its issuing faucet.
type Leg struct {
	Code            string `json:"code"`
	IssuerAccountID string `json:"issuerAccountId"`
}

// MarketDescription is the pair a desk trades.
type MarketDescription struct {
	Base  Leg `json:"base"`
	Quote Leg `json:"quote"`
}

// Label returns the pair as "BASE/QUOTE".
func (m MarketDescription) Label() string { return m.Base.Code + "/" + m.Quote.Code }

// Account is one directory entry as clients see it. Market and OwnerAccount
// are set for desks only.
type Account struct {
	ID           string             `json:"accountId"`
	Network      string             `json:"network"`
	Type         store.AccountType  `json:"accountType"`
	DisplayName  string             `json:"displayName,omitempty"`
	OwnerAccount string             `json:"ownerAccountId,omitempty"`
	Market       *MarketDescription `json:"market,omitempty"`
}

// ValidationError rejects a malformed account order.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid account order: " + e.Reason
}

// OrderKind discriminates the account order union.
type OrderKind string

const (
	OrderCreateClient    OrderKind = "CreateClient"
	OrderCreateDesk      OrderKind = "CreateDesk"
	OrderCreateFaucet    OrderKind = "CreateFaucet"
	OrderCreateLiquidity OrderKind = "CreateLiquidity"
	OrderActivateDesk    OrderKind = "ActivateDesk"
	OrderDeactivateDesk  OrderKind = "DeactivateDesk"
)

// Order is one account order request. Which fields apply depends on Kind.
type Order struct {
	Kind         OrderKind          `json:"kind"`
	Network      string             `json:"network,omitempty"`
	Name         string             `json:"name,omitempty"`
	Market       *MarketDescription `json:"market,omitempty"`
	OwnerAccount string             `json:"ownerAccount,omitempty"`
	RoutingURL   string             `json:"routingUrl,omitempty"`
	TokenSymbol  string             `json:"tokenSymbol,omitempty"`
	Decimals     uint8              `json:"decimals,omitempty"`
	MaxSupply    uint64             `json:"maxSupply,omitempty"`
	DeskAccount  string             `json:"deskAccount,omitempty"`
}

// Result is the outcome of one executed account order, discriminated the
// same way the order itself is.
type Result struct {
	Kind         string             `json:"kind"`
	AccountID    string             `json:"accountId,omitempty"`
	Name         string             `json:"name,omitempty"`
	Market       *MarketDescription `json:"market,omitempty"`
	MarketURL    string             `json:"marketUrl,omitempty"`
	OwnerAccount string             `json:"ownerAccount,omitempty"`
	DeskAccount  string             `json:"deskAccount,omitempty"`
	TokenSymbol  string             `json:"tokenSymbol,omitempty"`
	Decimals     uint8              `json:"decimals,omitempty"`
	MaxSupply    uint64             `json:"maxSupply,omitempty"`
}

func fromRow(row store.AccountRow) Account {
	return Account{
		ID:          row.ID,
		Network:     row.Network,
		Type:        row.Type,
		DisplayName: row.Name,
	}
}

func marketOf(desk store.DeskRow) *MarketDescription {
	return &MarketDescription{
		Base:  Leg{Code: desk.BaseCode, IssuerAccountID: desk.BaseIssuer},
		Quote: Leg{Code: desk.QuoteCode, IssuerAccountID: desk.QuoteIssuer},
	}
}

func (o Order) String() string {
	return fmt.Sprintf("%s on %s", o.Kind, o.Network)
}
