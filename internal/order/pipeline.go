package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/ledger"
	"github.com/edfixyz/mosaic/internal/session"
	"github.com/edfixyz/mosaic/internal/store"
)

// Submission is one order request with its acting identity: the user, the
// owner secret the session is keyed by, and the ledger account issuing the
// note.
type Submission struct {
	UserID    string
	Secret    [32]byte
	Network   ledger.Network
	AccountID string
	Order     Order
}

// Pipeline drives an order from request to routed note. It borrows sessions
// from the cache per call and never retains one.
type Pipeline struct {
	sessions *session.Cache
	store    *store.Store
	router   DeskRouter
	log      *logrus.Entry
}

// NewPipeline wires the order pipeline.
func NewPipeline(sessions *session.Cache, st *store.Store, router DeskRouter, log *logrus.Entry) *Pipeline {
	return &Pipeline{sessions: sessions, store: st, router: router, log: log}
}

// Submit processes one order. The returned record reflects the stage
// reached; a non-nil error never hides a persisted record (RoutingError
// returns the Failed record alongside the error).
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (store.OrderRow, error) {
	ord := sub.Order
	ord.Normalize()
	if err := ord.Validate(); err != nil {
		return store.OrderRow{}, err
	}

	// Duplicate uuids are rejected outright before any session work. The
	// insert below backstops the race between two concurrent submissions.
	if ord.UUID != "" {
		if _, err := p.store.GetOrder(ctx, ord.UUID); err == nil {
			return store.OrderRow{}, &store.DuplicateOrderError{UUID: ord.UUID}
		} else if !errors.Is(err, store.ErrNotFound) {
			return store.OrderRow{}, err
		}
	}

	var desk store.DeskRow
	if kindShape[ord.Kind].market {
		base, quote, _ := SplitMarket(ord.Market)
		var err error
		desk, err = p.store.FindDeskByMarket(ctx, sub.Network.String(), base, quote)
		if errors.Is(err, store.ErrNotFound) {
			return store.OrderRow{}, &ValidationError{Reason: fmt.Sprintf("unknown market %s", ord.Market)}
		}
		if err != nil {
			return store.OrderRow{}, err
		}
	}

	sess, err := p.sessions.GetOrCreate(ctx, session.KeyFor(sub.Secret, sub.Network))
	if err != nil {
		return store.OrderRow{}, err
	}
	client := sess.Client()

	if ord.Kind == KindFundAccount {
		return p.submitFunding(ctx, sub, ord, client)
	}

	d, err := draft(ord)
	if err != nil {
		return store.OrderRow{}, &ValidationError{Reason: err.Error()}
	}
	note, err := client.BuildNote(ctx, sub.AccountID, d)
	if err != nil {
		// Nothing durable happened, so no record is written.
		return store.OrderRow{}, &SettlementError{UUID: ord.UUID, Err: err}
	}

	row, err := p.persist(ctx, sub, ord, store.StageCreated, store.StatusPending)
	if err != nil {
		return store.OrderRow{}, err
	}

	if !routedToDesk[ord.Kind] {
		return row, nil
	}

	env := Envelope{Market: ord.Market, Order: ord, Note: note}
	if err := p.router.Route(ctx, desk.RoutingURL, env); err != nil {
		if aerr := p.store.AdvanceOrder(ctx, row.UUID, store.StageFailed, store.StatusError); aerr != nil {
			p.log.WithError(aerr).WithField("uuid", row.UUID).Error("failed to mark order failed")
		}
		row.Stage = store.StageFailed
		row.Status = store.StatusError
		return row, &RoutingError{UUID: row.UUID, Desk: desk.AccountID, Err: err}
	}

	if err := p.store.AdvanceOrder(ctx, row.UUID, store.StageRouted, store.StatusPending); err != nil {
		return row, err
	}
	row.Stage = store.StageRouted

	p.log.WithFields(logrus.Fields{
		"uuid": row.UUID,
		"kind": ord.Kind,
		"desk": desk.AccountID,
	}).Info("order routed")
	return row, nil
}

// submitFunding settles a faucet payment directly through the ledger's
// payment path. The transaction commits on-ledger in one step, so the
// record lands terminal.
func (p *Pipeline) submitFunding(ctx context.Context, sub Submission, ord Order, client ledger.Client) (store.OrderRow, error) {
	txID, err := client.FundAccount(ctx, sub.AccountID, ord.TargetAccount, ord.Amount)
	if err != nil {
		return store.OrderRow{}, &SettlementError{UUID: ord.UUID, Err: err}
	}
	row, err := p.persist(ctx, sub, ord, store.StageCommitted, store.StatusSuccess)
	if err != nil {
		return store.OrderRow{}, err
	}
	p.log.WithFields(logrus.Fields{
		"uuid":   row.UUID,
		"target": ord.TargetAccount,
		"tx":     txID,
	}).Info("account funded")
	return row, nil
}

func (p *Pipeline) persist(ctx context.Context, sub Submission, ord Order, stage store.Stage, status store.Status) (store.OrderRow, error) {
	recordID := ord.UUID
	if recordID == "" {
		recordID = uuid.NewString()
	}
	payload, err := json.Marshal(ord)
	if err != nil {
		return store.OrderRow{}, fmt.Errorf("encode order payload: %w", err)
	}
	row := store.OrderRow{
		UUID:         recordID,
		UserID:       sub.UserID,
		OrderType:    string(ord.Kind),
		Payload:      string(payload),
		Stage:        stage,
		Status:       status,
		OwnerAccount: sub.AccountID,
	}
	if err := p.store.InsertOrder(ctx, row); err != nil {
		return store.OrderRow{}, err
	}
	return row, nil
}

// List returns a user's order records, newest first.
func (p *Pipeline) List(ctx context.Context, userID string) ([]store.OrderRow, error) {
	return p.store.ListOrders(ctx, userID)
}
