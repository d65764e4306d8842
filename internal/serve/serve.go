// Package serve is the orchestration core behind the tool RPC surface. One
// Serve instance owns the session cache, the store and the domain services,
// and exposes the operations handlers call.
package serve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/account"
	"github.com/edfixyz/mosaic/internal/book"
	"github.com/edfixyz/mosaic/internal/ledger"
	"github.com/edfixyz/mosaic/internal/order"
	"github.com/edfixyz/mosaic/internal/registry"
	"github.com/edfixyz/mosaic/internal/session"
	"github.com/edfixyz/mosaic/internal/store"
	"github.com/edfixyz/mosaic/internal/version"
)

// Identity is the authenticated caller: a stable user id plus the owner
// secret their sessions are keyed by.
type Identity struct {
	UserID string
	Secret [32]byte
}

// AccountStatus is the synced view of one account plus its directory type.
type AccountStatus struct {
	AccountID   string         `json:"accountId"`
	AccountType string         `json:"accountType"`
	StorageMode string         `json:"storageMode"`
	Nonce       uint64         `json:"nonce"`
	Assets      []ledger.Asset `json:"assets"`
}

// Serve wires every subsystem and exposes the operation set.
type Serve struct {
	sessions *session.Cache
	store    *store.Store
	accounts *account.Service
	orders   *order.Pipeline
	registry *registry.Registry
	log      *logrus.Entry
}

// New builds the orchestration core around a session creation routine.
func New(sessions *session.Cache, st *store.Store, router order.DeskRouter, log *logrus.Entry) *Serve {
	return &Serve{
		sessions: sessions,
		store:    st,
		accounts: account.NewService(sessions, st, log),
		orders:   order.NewPipeline(sessions, st, router, log),
		registry: registry.New(st, log),
		log:      log,
	}
}

// Store exposes the backing store, mainly for tests and startup seeding.
func (s *Serve) Store() *store.Store { return s.store }

// ListAccounts returns the caller's accounts on a network.
func (s *Serve) ListAccounts(ctx context.Context, id Identity, network string) ([]account.Account, error) {
	net, err := ledger.ParseNetwork(network)
	if err != nil {
		return nil, &account.ValidationError{Reason: err.Error()}
	}
	return s.accounts.List(ctx, id.UserID, net)
}

// CreateAccountOrder executes one account order.
func (s *Serve) CreateAccountOrder(ctx context.Context, id Identity, ord account.Order) (account.Result, error) {
	return s.accounts.Apply(ctx, id.UserID, id.Secret, ord)
}

// CreateOrder submits one trading order through the pipeline.
func (s *Serve) CreateOrder(ctx context.Context, id Identity, network, accountID string, ord order.Order) (store.OrderRow, error) {
	net, err := ledger.ParseNetwork(network)
	if err != nil {
		return store.OrderRow{}, &order.ValidationError{Reason: err.Error()}
	}
	return s.orders.Submit(ctx, order.Submission{
		UserID:    id.UserID,
		Secret:    id.Secret,
		Network:   net,
		AccountID: accountID,
		Order:     ord,
	})
}

// ListOrders returns the caller's order records, newest first.
func (s *Serve) ListOrders(ctx context.Context, id Identity) ([]store.OrderRow, error) {
	return s.orders.List(ctx, id.UserID)
}

// GetRoleSettings returns the caller's role flags.
func (s *Serve) GetRoleSettings(ctx context.Context, id Identity) (store.RoleSettings, error) {
	return s.registry.GetRoles(ctx, id.UserID)
}

// UpdateRoleSettings replaces the caller's role flags.
func (s *Serve) UpdateRoleSettings(ctx context.Context, id Identity, roles store.RoleSettings) error {
	return s.registry.SetRoles(ctx, id.UserID, roles)
}

// ListAssets returns the caller's asset catalogue.
func (s *Serve) ListAssets(ctx context.Context, id Identity) ([]registry.Asset, error) {
	return s.registry.ListAssets(ctx, id.UserID)
}

// RegisterAsset records one asset for the caller.
func (s *Serve) RegisterAsset(ctx context.Context, id Identity, in registry.Input) (registry.Asset, error) {
	return s.registry.Register(ctx, id.UserID, in)
}

// GetDeskInfo reconstructs a desk's order book through the caller's
// session. The desk account is imported first so its public storage is
// readable.
func (s *Serve) GetDeskInfo(ctx context.Context, id Identity, network, deskAccountID string) (book.Info, error) {
	net, err := ledger.ParseNetwork(network)
	if err != nil {
		return book.Info{}, &account.ValidationError{Reason: err.Error()}
	}
	sess, err := s.sessions.GetOrCreate(ctx, session.KeyFor(id.Secret, net))
	if err != nil {
		return book.Info{}, err
	}
	client := sess.Client()
	if err := client.ImportAccount(ctx, deskAccountID); err != nil {
		return book.Info{}, fmt.Errorf("import desk account %s: %w", deskAccountID, err)
	}
	return book.Read(ctx, client, net, deskAccountID)
}

// ClientSync pulls the latest chain state into the caller's session.
func (s *Serve) ClientSync(ctx context.Context, id Identity, network string) (ledger.SyncSummary, error) {
	net, err := ledger.ParseNetwork(network)
	if err != nil {
		return ledger.SyncSummary{}, &account.ValidationError{Reason: err.Error()}
	}
	sess, err := s.sessions.GetOrCreate(ctx, session.KeyFor(id.Secret, net))
	if err != nil {
		return ledger.SyncSummary{}, err
	}
	return sess.Client().SyncState(ctx)
}

// GetAccountStatus returns the synced state of one account, annotated with
// its directory type when known.
func (s *Serve) GetAccountStatus(ctx context.Context, id Identity, network, accountID string) (AccountStatus, error) {
	net, err := ledger.ParseNetwork(network)
	if err != nil {
		return AccountStatus{}, &account.ValidationError{Reason: err.Error()}
	}
	sess, err := s.sessions.GetOrCreate(ctx, session.KeyFor(id.Secret, net))
	if err != nil {
		return AccountStatus{}, err
	}
	record, err := sess.Client().GetAccount(ctx, accountID)
	if err != nil {
		return AccountStatus{}, err
	}

	accountType := "Unknown"
	if row, err := s.store.GetAccount(ctx, id.UserID, accountID); err == nil {
		accountType = string(row.Type)
	}
	return AccountStatus{
		AccountID:   record.ID,
		AccountType: accountType,
		StorageMode: record.StorageMode,
		Nonce:       record.Nonce,
		Assets:      record.Assets,
	}, nil
}

// DeskPushNote ingests one routed note into a desk's inbox and returns the
// inbox id. The desk must exist; the envelope's order uuid, when present,
// links the inbox row to its order record.
func (s *Serve) DeskPushNote(ctx context.Context, deskAccountID string, noteJSON json.RawMessage) (int64, error) {
	if _, err := s.store.GetDesk(ctx, deskAccountID); err != nil {
		return 0, err
	}

	var env order.Envelope
	orderUUID := ""
	if err := json.Unmarshal(noteJSON, &env); err == nil {
		orderUUID = env.Order.UUID
	}

	id, err := s.store.InsertDeskNote(ctx, deskAccountID, orderUUID, string(noteJSON))
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{
		"desk": deskAccountID,
		"note": id,
		"uuid": orderUUID,
	}).Info("note ingested")
	return id, nil
}

// ConsumeNote consumes a desk inbox note with the given account. On success
// the inbox row moves to consumed and the linked order, if any, to
// Committed/Success. A note that does not decode moves to invalid; a ledger
// failure leaves it untouched for retry.
func (s *Serve) ConsumeNote(ctx context.Context, id Identity, network, accountID string, noteID int64) (string, error) {
	net, err := ledger.ParseNetwork(network)
	if err != nil {
		return "", &account.ValidationError{Reason: err.Error()}
	}

	row, err := s.store.GetDeskNote(ctx, noteID)
	if err != nil {
		return "", err
	}

	var env order.Envelope
	if err := json.Unmarshal([]byte(row.NoteJSON), &env); err != nil || env.Note.Payload == "" {
		if serr := s.store.SetDeskNoteStatus(ctx, noteID, store.NoteStatusInvalid); serr != nil {
			s.log.WithError(serr).WithField("note", noteID).Error("failed to mark note invalid")
		}
		return "", fmt.Errorf("note %d does not decode as a settlement note", noteID)
	}

	sess, err := s.sessions.GetOrCreate(ctx, session.KeyFor(id.Secret, net))
	if err != nil {
		return "", err
	}
	txID, err := sess.Client().ConsumeNote(ctx, accountID, env.Note)
	if err != nil {
		return "", fmt.Errorf("consume note %d: %w", noteID, err)
	}

	if err := s.store.SetDeskNoteStatus(ctx, noteID, store.NoteStatusConsumed); err != nil {
		return "", err
	}
	if row.OrderUUID != "" {
		if err := s.store.AdvanceOrder(ctx, row.OrderUUID, store.StageCommitted, store.StatusSuccess); err != nil {
			s.log.WithError(err).WithField("uuid", row.OrderUUID).Warn("could not commit linked order")
		}
	}

	s.log.WithFields(logrus.Fields{
		"note": noteID,
		"tx":   txID,
	}).Info("note consumed")
	return txID, nil
}

// Flush drops every cached session and reports how many were dropped.
func (s *Serve) Flush() int {
	return s.sessions.Flush()
}

// Version returns the build version string.
func (s *Serve) Version() string {
	return version.String
}
