// Package registry persists the asset catalogue and per-user role flags.
package registry

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/codec"
	"github.com/edfixyz/mosaic/internal/store"
)

// UnknownSupply is the formatted rendering of an unknown max supply. The
// stored sentinel for it is the string "0".
const UnknownSupply = "unknown"

// defaultAsset is visible to every user from their first listing on.
var defaultAsset = store.AssetRow{
	Account:   "mtst1qrkc5sp34wkncgr9tp9ghjsjv9cqq0u8da0",
	Symbol:    "BTC",
	MaxSupply: "2100000000000000",
	Decimals:  8,
	Verified:  true,
}

// Asset is one catalogue entry as clients see it.
type Asset struct {
	Symbol          string `json:"symbol"`
	Account         string `json:"account"`
	MaxSupply       string `json:"maxSupply"`
	FormattedSupply string `json:"formattedSupply"`
	Decimals        uint8  `json:"decimals"`
	Verified        bool   `json:"verified"`
	Owner           bool   `json:"owner"`
}

// Input describes one asset registration. Link marks an asset the user
// merely references rather than owns; linked entries are stored unverified
// and unowned regardless of what the caller claims.
type Input struct {
	Symbol    string `json:"symbol"`
	Account   string `json:"account"`
	MaxSupply string `json:"maxSupply"`
	Decimals  uint8  `json:"decimals"`
	Link      bool   `json:"link,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
}

// ValidationError rejects a malformed asset registration.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid asset: " + e.Reason
}

// Registry serves asset and role operations over the store.
type Registry struct {
	store *store.Store
	log   *logrus.Entry
}

// New wires the registry.
func New(st *store.Store, log *logrus.Entry) *Registry {
	return &Registry{store: st, log: log}
}

// ListAssets returns the user's visible assets merged over the default
// catalogue. A user's own entry for a default account wins.
func (r *Registry) ListAssets(ctx context.Context, userID string) ([]Asset, error) {
	rows, err := r.store.ListAssets(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	out := make([]Asset, 0, len(rows)+1)
	for _, row := range rows {
		seen[row.Account] = true
		out = append(out, fromRow(row))
	}
	if !seen[defaultAsset.Account] {
		out = append(out, fromRow(defaultAsset))
	}
	return out, nil
}

// Register records an asset for a user. Linked assets are forced to
// unverified and unowned.
func (r *Registry) Register(ctx context.Context, userID string, in Input) (Asset, error) {
	if _, err := codec.EncodeSymbol(in.Symbol); err != nil {
		return Asset{}, &ValidationError{Reason: err.Error()}
	}
	if _, _, err := codec.DecodeAddress(in.Account); err != nil {
		return Asset{}, &ValidationError{Reason: fmt.Sprintf("account %q: %v", in.Account, err)}
	}
	maxSupply := in.MaxSupply
	if maxSupply == "" {
		maxSupply = "0"
	} else if _, err := decimal.NewFromString(maxSupply); err != nil {
		return Asset{}, &ValidationError{Reason: fmt.Sprintf("max supply %q: %v", maxSupply, err)}
	}

	row := store.AssetRow{
		Account:   in.Account,
		UserID:    userID,
		Symbol:    in.Symbol,
		MaxSupply: maxSupply,
		Decimals:  in.Decimals,
		Hidden:    in.Hidden,
		Owner:     !in.Link,
	}
	if err := r.store.UpsertAsset(ctx, row); err != nil {
		return Asset{}, err
	}
	r.log.WithFields(logrus.Fields{
		"symbol":  in.Symbol,
		"account": in.Account,
		"link":    in.Link,
	}).Info("asset registered")
	return fromRow(row), nil
}

// GetRoles returns a user's role flags, all-false when never set.
func (r *Registry) GetRoles(ctx context.Context, userID string) (store.RoleSettings, error) {
	return r.store.GetRoles(ctx, userID)
}

// SetRoles replaces a user's role flags.
func (r *Registry) SetRoles(ctx context.Context, userID string, roles store.RoleSettings) error {
	return r.store.SetRoles(ctx, userID, roles)
}

// FormatAssetSupply renders a raw max supply in token units. The stored
// sentinel "0" reads as unknown.
func FormatAssetSupply(maxSupply string, decimals uint8) string {
	if maxSupply == "" || maxSupply == "0" {
		return UnknownSupply
	}
	raw, err := decimal.NewFromString(maxSupply)
	if err != nil {
		return UnknownSupply
	}
	return raw.Shift(-int32(decimals)).String()
}

func fromRow(row store.AssetRow) Asset {
	return Asset{
		Symbol:          row.Symbol,
		Account:         row.Account,
		MaxSupply:       row.MaxSupply,
		FormattedSupply: FormatAssetSupply(row.MaxSupply, row.Decimals),
		Decimals:        row.Decimals,
		Verified:        row.Verified,
		Owner:           row.Owner,
	}
}
