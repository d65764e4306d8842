package account

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/codec"
	"github.com/edfixyz/mosaic/internal/ledger"
	"github.com/edfixyz/mosaic/internal/session"
	"github.com/edfixyz/mosaic/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	entry := logrus.NewEntry(log)

	st, err := store.Open(":memory:", entry)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cache := session.NewCache(func(ctx context.Context, key session.Key) (ledger.Client, error) {
		return ledger.NewMemoryClient(key.Network), nil
	}, 0, entry)

	return NewService(cache, st, entry), st
}

func testMarket(t *testing.T) *MarketDescription {
	t.Helper()
	var baseIssuer, quoteIssuer codec.IssuerID
	baseIssuer[0] = 1
	quoteIssuer[0] = 2
	baseAddr, err := codec.EncodeAddress(codec.HRPTestnet, baseIssuer)
	if err != nil {
		t.Fatalf("encode base issuer: %v", err)
	}
	quoteAddr, err := codec.EncodeAddress(codec.HRPTestnet, quoteIssuer)
	if err != nil {
		t.Fatalf("encode quote issuer: %v", err)
	}
	return &MarketDescription{
		Base:  Leg{Code: "BTC", IssuerAccountID: baseAddr},
		Quote: Leg{Code: "USD", IssuerAccountID: quoteAddr},
	}
}

func TestApplyCreateClient(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	var secret [32]byte

	res, err := svc.Apply(ctx, "alice", secret, Order{
		Kind: OrderCreateClient, Network: "Testnet", Name: "main wallet",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Kind != "Client" || res.AccountID == "" || res.Name != "main wallet" {
		t.Errorf("unexpected result: %+v", res)
	}

	accounts, err := svc.List(ctx, "alice", ledger.NetworkTestnet)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Type != store.AccountClient || accounts[0].DisplayName != "main wallet" {
		t.Errorf("directory = %+v, want one named client account", accounts)
	}
}

func TestApplyCreateFaucet(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	var secret [32]byte

	res, err := svc.Apply(ctx, "alice", secret, Order{
		Kind: OrderCreateFaucet, Network: "Testnet",
		TokenSymbol: "GOLD", Decimals: 6, MaxSupply: 1000000,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Kind != "Faucet" || res.TokenSymbol != "GOLD" || res.MaxSupply != 1000000 {
		t.Errorf("unexpected result: %+v", res)
	}

	asset, err := st.GetAsset(ctx, "alice", res.AccountID)
	if err != nil {
		t.Fatalf("faucet not registered as asset: %v", err)
	}
	if !asset.Owner || asset.Verified {
		t.Errorf("own faucet registered as owner=%v verified=%v, want owned and unverified", asset.Owner, asset.Verified)
	}
	if asset.MaxSupply != "1000000" || asset.Decimals != 6 {
		t.Errorf("asset supply = %s/%d", asset.MaxSupply, asset.Decimals)
	}

	for _, bad := range []Order{
		{Kind: OrderCreateFaucet, Network: "Testnet", TokenSymbol: "toolong123", MaxSupply: 1},
		{Kind: OrderCreateFaucet, Network: "Testnet", TokenSymbol: "GOLD"},
		{Kind: OrderCreateFaucet, Network: "Mainnet", TokenSymbol: "GOLD", MaxSupply: 1},
	} {
		var verr *ValidationError
		if _, err := svc.Apply(ctx, "alice", secret, bad); !errors.As(err, &verr) {
			t.Errorf("order %+v got %v, want ValidationError", bad, err)
		}
	}
}

func TestApplyCreateDeskAndActivation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	var secret [32]byte

	res, err := svc.Apply(ctx, "dealer", secret, Order{
		Kind: OrderCreateDesk, Network: "Testnet",
		Market:       testMarket(t),
		OwnerAccount: "mtst1qowner",
		RoutingURL:   "http://desk.example:9000",
	})
	if err != nil {
		t.Fatalf("create desk: %v", err)
	}
	if res.Kind != "Desk" || res.Market.Label() != "BTC/USD" || res.MarketURL != "http://desk.example:9000" {
		t.Errorf("unexpected result: %+v", res)
	}

	accounts, err := svc.List(ctx, "dealer", ledger.NetworkTestnet)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Market == nil || accounts[0].Market.Label() != "BTC/USD" {
		t.Fatalf("directory = %+v, want desk with market", accounts)
	}
	if accounts[0].OwnerAccount != "mtst1qowner" {
		t.Errorf("desk owner = %s", accounts[0].OwnerAccount)
	}

	desk, err := st.GetDesk(ctx, res.AccountID)
	if err != nil {
		t.Fatalf("get desk: %v", err)
	}
	if desk.Active {
		t.Error("new desk must start inactive")
	}

	// Activation is owner-scoped.
	if _, err := svc.Apply(ctx, "mallory", secret, Order{Kind: OrderActivateDesk, DeskAccount: res.AccountID}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("foreign activation got %v, want ErrNotFound", err)
	}
	act, err := svc.Apply(ctx, "dealer", secret, Order{Kind: OrderActivateDesk, DeskAccount: res.AccountID})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if act.Kind != "DeskActivated" {
		t.Errorf("activation result %+v", act)
	}
	if desk, _ := st.GetDesk(ctx, res.AccountID); !desk.Active {
		t.Error("desk not active after ActivateDesk")
	}

	deact, err := svc.Apply(ctx, "dealer", secret, Order{Kind: OrderDeactivateDesk, DeskAccount: res.AccountID})
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deact.Kind != "DeskDeactivated" {
		t.Errorf("deactivation result %+v", deact)
	}
	if desk, _ := st.GetDesk(ctx, res.AccountID); desk.Active {
		t.Error("desk still active after DeactivateDesk")
	}
}

func TestApplyCreateDeskValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	var secret [32]byte

	market := testMarket(t)
	tests := []Order{
		{Kind: OrderCreateDesk, Network: "Testnet", OwnerAccount: "mtst1qowner"},
		{Kind: OrderCreateDesk, Network: "Testnet", Market: market},
		{Kind: OrderCreateDesk, Network: "Testnet", OwnerAccount: "x",
			Market: &MarketDescription{Base: Leg{Code: "BTC", IssuerAccountID: "garbage"}, Quote: market.Quote}},
		{Kind: "DeleteDesk"},
	}
	for _, ord := range tests {
		var verr *ValidationError
		if _, err := svc.Apply(ctx, "dealer", secret, ord); !errors.As(err, &verr) {
			t.Errorf("order %+v got %v, want ValidationError", ord, err)
		}
	}
}

func TestApplyCreateLiquidity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	var secret [32]byte

	res, err := svc.Apply(ctx, "lp", secret, Order{Kind: OrderCreateLiquidity, Network: "Localnet"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Kind != "Liquidity" || res.AccountID == "" {
		t.Errorf("unexpected result: %+v", res)
	}

	accounts, err := svc.List(ctx, "lp", ledger.NetworkLocalnet)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Type != store.AccountLiquidity {
		t.Errorf("directory = %+v, want one liquidity account", accounts)
	}
}
