package account

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/codec"
	"github.com/edfixyz/mosaic/internal/ledger"
	"github.com/edfixyz/mosaic/internal/session"
	"github.com/edfixyz/mosaic/internal/store"
)

// Service executes account orders and serves directory reads. Sessions are
// borrowed from the cache per call, never retained.
type Service struct {
	sessions *session.Cache
	store    *store.Store
	log      *logrus.Entry
}

// NewService wires the account service.
func NewService(sessions *session.Cache, st *store.Store, log *logrus.Entry) *Service {
	return &Service{sessions: sessions, store: st, log: log}
}

// List returns every account a user holds on a network, with desk market
// data attached.
func (s *Service) List(ctx context.Context, userID string, network ledger.Network) ([]Account, error) {
	rows, err := s.store.ListAccounts(ctx, userID, network.String())
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(rows))
	for _, row := range rows {
		acct := fromRow(row)
		if row.Type == store.AccountDesk {
			desk, err := s.store.GetDesk(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			acct.OwnerAccount = desk.OwnerAccount
			acct.Market = marketOf(desk)
		}
		out = append(out, acct)
	}
	return out, nil
}

// Apply executes one account order for the given identity and returns its
// typed result.
func (s *Service) Apply(ctx context.Context, userID string, secret [32]byte, ord Order) (Result, error) {
	switch ord.Kind {
	case OrderCreateClient, OrderCreateDesk, OrderCreateFaucet, OrderCreateLiquidity:
		network, err := ledger.ParseNetwork(ord.Network)
		if err != nil {
			return Result{}, &ValidationError{Reason: err.Error()}
		}
		sess, err := s.sessions.GetOrCreate(ctx, session.KeyFor(secret, network))
		if err != nil {
			return Result{}, err
		}
		switch ord.Kind {
		case OrderCreateClient:
			return s.createWallet(ctx, userID, network, ord.Name, store.AccountClient, sess.Client())
		case OrderCreateLiquidity:
			return s.createWallet(ctx, userID, network, "", store.AccountLiquidity, sess.Client())
		case OrderCreateFaucet:
			return s.createFaucet(ctx, userID, network, ord, sess.Client())
		default:
			return s.createDesk(ctx, userID, network, ord, sess.Client())
		}

	case OrderActivateDesk, OrderDeactivateDesk:
		active := ord.Kind == OrderActivateDesk
		if ord.DeskAccount == "" {
			return Result{}, &ValidationError{Reason: "desk account is required"}
		}
		if err := s.store.SetDeskActive(ctx, userID, ord.DeskAccount, active); err != nil {
			return Result{}, err
		}
		kind := "DeskActivated"
		if !active {
			kind = "DeskDeactivated"
		}
		s.log.WithFields(logrus.Fields{
			"desk":   ord.DeskAccount,
			"active": active,
		}).Info("desk activation changed")
		return Result{Kind: kind, DeskAccount: ord.DeskAccount, OwnerAccount: ord.OwnerAccount}, nil

	default:
		return Result{}, &ValidationError{Reason: fmt.Sprintf("unknown account order kind %q", ord.Kind)}
	}
}

func (s *Service) createWallet(ctx context.Context, userID string, network ledger.Network, name string, typ store.AccountType, client ledger.Client) (Result, error) {
	addr, err := client.NewWallet(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("create wallet account: %w", err)
	}
	row := store.AccountRow{ID: addr, UserID: userID, Network: network.String(), Type: typ, Name: name}
	if err := s.store.InsertAccount(ctx, row); err != nil {
		return Result{}, err
	}
	s.log.WithFields(logrus.Fields{"account": addr, "type": typ}).Info("account created")
	return Result{Kind: string(typ), AccountID: addr, Name: name}, nil
}

func (s *Service) createFaucet(ctx context.Context, userID string, network ledger.Network, ord Order, client ledger.Client) (Result, error) {
	if _, err := codec.EncodeSymbol(ord.TokenSymbol); err != nil {
		return Result{}, &ValidationError{Reason: err.Error()}
	}
	if ord.MaxSupply == 0 {
		return Result{}, &ValidationError{Reason: "max supply must be positive"}
	}

	addr, err := client.NewFaucet(ctx, ord.TokenSymbol, ord.Decimals, ord.MaxSupply)
	if err != nil {
		return Result{}, fmt.Errorf("create faucet account: %w", err)
	}
	row := store.AccountRow{ID: addr, UserID: userID, Network: network.String(), Type: store.AccountFaucet, Name: ord.TokenSymbol}
	if err := s.store.InsertAccount(ctx, row); err != nil {
		return Result{}, err
	}
	// The creator's own faucet lands in the asset registry as an owned,
	// unverified entry.
	asset := store.AssetRow{
		Account:   addr,
		UserID:    userID,
		Symbol:    ord.TokenSymbol,
		MaxSupply: fmt.Sprintf("%d", ord.MaxSupply),
		Decimals:  ord.Decimals,
		Owner:     true,
	}
	if err := s.store.UpsertAsset(ctx, asset); err != nil {
		return Result{}, err
	}

	s.log.WithFields(logrus.Fields{"account": addr, "symbol": ord.TokenSymbol}).Info("faucet created")
	return Result{
		Kind:        "Faucet",
		AccountID:   addr,
		TokenSymbol: ord.TokenSymbol,
		Decimals:    ord.Decimals,
		MaxSupply:   ord.MaxSupply,
	}, nil
}

func (s *Service) createDesk(ctx context.Context, userID string, network ledger.Network, ord Order, client ledger.Client) (Result, error) {
	if ord.Market == nil {
		return Result{}, &ValidationError{Reason: "market description is required"}
	}
	if ord.OwnerAccount == "" {
		return Result{}, &ValidationError{Reason: "owner account is required"}
	}
	for _, leg := range []Leg{ord.Market.Base, ord.Market.Quote} {
		if _, err := codec.EncodeSymbol(leg.Code); err != nil {
			return Result{}, &ValidationError{Reason: err.Error()}
		}
		if _, _, err := codec.DecodeAddress(leg.IssuerAccountID); err != nil {
			return Result{}, &ValidationError{Reason: fmt.Sprintf("issuer of %s: %v", leg.Code, err)}
		}
	}

	addr, err := client.NewWallet(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("create desk account: %w", err)
	}
	row := store.AccountRow{ID: addr, UserID: userID, Network: network.String(), Type: store.AccountDesk, Name: ord.Market.Label()}
	if err := s.store.InsertAccount(ctx, row); err != nil {
		return Result{}, err
	}
	desk := store.DeskRow{
		AccountID:    addr,
		UserID:       userID,
		Network:      network.String(),
		BaseCode:     ord.Market.Base.Code,
		BaseIssuer:   ord.Market.Base.IssuerAccountID,
		QuoteCode:    ord.Market.Quote.Code,
		QuoteIssuer:  ord.Market.Quote.IssuerAccountID,
		OwnerAccount: ord.OwnerAccount,
		RoutingURL:   ord.RoutingURL,
	}
	if err := s.store.InsertDesk(ctx, desk); err != nil {
		return Result{}, err
	}

	s.log.WithFields(logrus.Fields{
		"account": addr,
		"market":  ord.Market.Label(),
	}).Info("desk created")
	return Result{
		Kind:         "Desk",
		AccountID:    addr,
		Market:       ord.Market,
		MarketURL:    ord.RoutingURL,
		OwnerAccount: ord.OwnerAccount,
	}, nil
}
