package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/codec"
	"github.com/edfixyz/mosaic/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	entry := logrus.NewEntry(log)

	st, err := store.Open(":memory:", entry)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, entry)
}

func testAccount(t *testing.T, b byte) string {
	t.Helper()
	var id codec.IssuerID
	id[0] = b
	addr, err := codec.EncodeAddress(codec.HRPTestnet, id)
	if err != nil {
		t.Fatalf("encode address: %v", err)
	}
	return addr
}

func TestFormatAssetSupply(t *testing.T) {
	tests := []struct {
		name      string
		maxSupply string
		decimals  uint8
		want      string
	}{
		{"btc supply", "2100000000000000", 8, "21000000"},
		{"no decimals", "5000", 0, "5000"},
		{"fractional", "123456", 4, "12.3456"},
		{"unknown sentinel", "0", 8, UnknownSupply},
		{"empty", "", 8, UnknownSupply},
		{"garbage", "not-a-number", 8, UnknownSupply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAssetSupply(tt.maxSupply, tt.decimals); got != tt.want {
				t.Errorf("FormatAssetSupply(%q, %d) = %q, want %q", tt.maxSupply, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestListAssetsIncludesDefault(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	assets, err := r.ListAssets(ctx, "fresh-user")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("fresh user sees %d assets, want the default only", len(assets))
	}
	got := assets[0]
	if got.Symbol != "BTC" || !got.Verified || got.Owner {
		t.Errorf("default asset = %+v", got)
	}
	if got.FormattedSupply != "21000000" {
		t.Errorf("default supply renders as %q, want 21000000", got.FormattedSupply)
	}
}

func TestRegisterLinkedAssetUnverified(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	account := testAccount(t, 9)

	got, err := r.Register(ctx, "alice", Input{
		Symbol:    "GOLD",
		Account:   account,
		MaxSupply: "1000000",
		Decimals:  6,
		Link:      true,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got.Verified || got.Owner {
		t.Errorf("linked asset stored verified=%v owner=%v, want both false", got.Verified, got.Owner)
	}
	if got.FormattedSupply != "1" {
		t.Errorf("formatted supply = %q, want 1", got.FormattedSupply)
	}

	assets, err := r.ListAssets(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(assets) != 2 {
		t.Errorf("alice sees %d assets, want linked + default", len(assets))
	}
}

func TestRegisterOwnAsset(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	got, err := r.Register(ctx, "alice", Input{
		Symbol:  "SILVER",
		Account: testAccount(t, 4),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !got.Owner {
		t.Error("non-linked registration must be owned")
	}
	if got.MaxSupply != "0" || got.FormattedSupply != UnknownSupply {
		t.Errorf("missing supply stored as %q / rendered %q", got.MaxSupply, got.FormattedSupply)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	account := testAccount(t, 1)

	tests := []Input{
		{Symbol: "toolongsym", Account: account},
		{Symbol: "GOLD", Account: "not-bech32"},
		{Symbol: "GOLD", Account: account, MaxSupply: "12.34.56"},
	}
	for _, in := range tests {
		var verr *ValidationError
		if _, err := r.Register(ctx, "alice", in); !errors.As(err, &verr) {
			t.Errorf("input %+v got %v, want ValidationError", in, err)
		}
	}
}

func TestRoles(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	roles, err := r.GetRoles(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if roles != (store.RoleSettings{}) {
		t.Errorf("unset roles = %+v, want all-false", roles)
	}

	want := store.RoleSettings{IsLiquidityProvider: true}
	if err := r.SetRoles(ctx, "alice", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := r.GetRoles(ctx, "alice"); got != want {
		t.Errorf("roles = %+v, want %+v", got, want)
	}
}
