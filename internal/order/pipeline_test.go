package order

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/ledger"
	"github.com/edfixyz/mosaic/internal/session"
	"github.com/edfixyz/mosaic/internal/store"
)

type fakeRouter struct {
	err    error
	routed []Envelope
	urls   []string
}

func (r *fakeRouter) Route(ctx context.Context, routingURL string, env Envelope) error {
	if r.err != nil {
		return r.err
	}
	r.routed = append(r.routed, env)
	r.urls = append(r.urls, routingURL)
	return nil
}

type pipelineFixture struct {
	pipeline *Pipeline
	store    *store.Store
	client   *ledger.MemoryClient
	account  string
	secret   [32]byte
	router   *fakeRouter
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	entry := logrus.NewEntry(log)

	st, err := store.Open(":memory:", entry)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	client := ledger.NewMemoryClient(ledger.NetworkTestnet)
	account, err := client.NewWallet(context.Background())
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}

	cache := session.NewCache(func(ctx context.Context, key session.Key) (ledger.Client, error) {
		return client, nil
	}, 0, entry)

	router := &fakeRouter{}
	f := &pipelineFixture{
		pipeline: NewPipeline(cache, st, router, entry),
		store:    st,
		client:   client,
		account:  account,
		router:   router,
	}
	f.secret[0] = 7

	desk := store.DeskRow{
		AccountID:    "mtst1qdesk",
		UserID:       "dealer",
		Network:      "Testnet",
		BaseCode:     "BTC",
		BaseIssuer:   "mtst1qbase",
		QuoteCode:    "USD",
		QuoteIssuer:  "mtst1qquote",
		OwnerAccount: "mtst1qowner",
		RoutingURL:   "http://desk.example:9000",
	}
	if err := st.InsertDesk(context.Background(), desk); err != nil {
		t.Fatalf("insert desk: %v", err)
	}
	if err := st.SetDeskActive(context.Background(), "dealer", desk.AccountID, true); err != nil {
		t.Fatalf("activate desk: %v", err)
	}
	return f
}

func (f *pipelineFixture) submission(o Order) Submission {
	return Submission{
		UserID:    "alice",
		Secret:    f.secret,
		Network:   ledger.NetworkTestnet,
		AccountID: f.account,
		Order:     o,
	}
}

func TestSubmitLimitOrderRouted(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	row, err := f.pipeline.Submit(ctx, f.submission(Order{
		Kind: KindLimitOrder, Market: "BTC/USD",
		UUID: "11111111-2222-3333-4444-555555555555",
		Side: SideBuy, Amount: 10, Price: 95000,
	}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if row.Stage != store.StageRouted || row.Status != store.StatusPending {
		t.Errorf("record at %s/%s, want Routed/Pending", row.Stage, row.Status)
	}

	if len(f.router.routed) != 1 {
		t.Fatalf("router saw %d notes, want 1", len(f.router.routed))
	}
	env := f.router.routed[0]
	if env.Market != "BTC/USD" || env.Note.Payload == "" {
		t.Errorf("bad envelope: %+v", env)
	}
	if f.router.urls[0] != "http://desk.example:9000" {
		t.Errorf("routed to %s", f.router.urls[0])
	}

	stored, err := f.store.GetOrder(ctx, row.UUID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Stage != store.StageRouted {
		t.Errorf("stored stage %s, want Routed", stored.Stage)
	}
}

func TestSubmitDuplicateUUIDRejected(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	o := Order{
		Kind: KindLimitOrder, Market: "BTC/USD",
		UUID: "11111111-2222-3333-4444-555555555555",
		Side: SideBuy, Amount: 10, Price: 95000,
	}
	if _, err := f.pipeline.Submit(ctx, f.submission(o)); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := f.pipeline.Submit(ctx, f.submission(o))
	var dup *store.DuplicateOrderError
	if !errors.As(err, &dup) {
		t.Fatalf("resubmit got %T (%v), want DuplicateOrderError", err, err)
	}

	orders, err := f.pipeline.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("duplicate submission left %d records, want 1", len(orders))
	}
	if orders[0].Stage != store.StageRouted {
		t.Errorf("first record regressed to %s", orders[0].Stage)
	}
	if len(f.router.routed) != 1 {
		t.Errorf("duplicate reached the desk: %d notes routed", len(f.router.routed))
	}
}

func TestSubmitUnknownMarket(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Submit(context.Background(), f.submission(Order{
		Kind: KindLimitOrder, Market: "ETH/USD",
		UUID: "11111111-2222-3333-4444-555555555555",
		Side: SideBuy, Amount: 1, Price: 1,
	}))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("unknown market got %T (%v), want ValidationError", err, err)
	}
	if len(f.router.routed) != 0 {
		t.Error("invalid order reached the desk")
	}
}

func TestSubmitSettlementFailureLeavesNoRecord(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	sub := f.submission(Order{
		Kind: KindLimitOrder, Market: "BTC/USD",
		UUID: "11111111-2222-3333-4444-555555555555",
		Side: SideBuy, Amount: 10, Price: 95000,
	})
	sub.AccountID = "mtst1qunknown" // note signing fails for an untracked account

	_, err := f.pipeline.Submit(ctx, sub)
	var serr *SettlementError
	if !errors.As(err, &serr) {
		t.Fatalf("got %T (%v), want SettlementError", err, err)
	}

	orders, err := f.pipeline.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("settlement failure persisted %d records, want 0", len(orders))
	}

	// The uuid stays free for a corrected resubmission.
	if _, err := f.pipeline.Submit(ctx, f.submission(sub.Order)); err != nil {
		t.Errorf("resubmission after settlement failure: %v", err)
	}
}

func TestSubmitRoutingFailurePersistsFailedRecord(t *testing.T) {
	f := newPipelineFixture(t)
	f.router.err = errors.New("desk returned status 503")
	ctx := context.Background()

	row, err := f.pipeline.Submit(ctx, f.submission(Order{
		Kind: KindLimitOrder, Market: "BTC/USD",
		UUID: "11111111-2222-3333-4444-555555555555",
		Side: SideBuy, Amount: 10, Price: 95000,
	}))
	var rerr *RoutingError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %T (%v), want RoutingError", err, err)
	}
	if rerr.Desk != "mtst1qdesk" {
		t.Errorf("routing error names desk %s", rerr.Desk)
	}
	if row.Stage != store.StageFailed || row.Status != store.StatusError {
		t.Errorf("returned record at %s/%s, want Failed/Error", row.Stage, row.Status)
	}

	stored, err := f.store.GetOrder(ctx, row.UUID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if stored.Stage != store.StageFailed || stored.Status != store.StatusError {
		t.Errorf("stored record at %s/%s, want Failed/Error", stored.Stage, stored.Status)
	}
}

func TestSubmitFundAccount(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	target, err := f.client.NewWallet(ctx)
	if err != nil {
		t.Fatalf("new wallet: %v", err)
	}

	row, err := f.pipeline.Submit(ctx, f.submission(Order{
		Kind: KindFundAccount, TargetAccount: target, Amount: 2500,
	}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if row.Stage != store.StageCommitted || row.Status != store.StatusSuccess {
		t.Errorf("funding record at %s/%s, want Committed/Success", row.Stage, row.Status)
	}
	if row.UUID == "" {
		t.Error("funding record has no generated uuid")
	}

	rec, err := f.client.GetAccount(ctx, target)
	if err != nil {
		t.Fatalf("get target: %v", err)
	}
	if len(rec.Assets) != 1 || rec.Assets[0].Amount != 2500 {
		t.Errorf("target holds %+v, want one asset of 2500", rec.Assets)
	}
	if len(f.router.routed) != 0 {
		t.Error("funding order must not route to a desk")
	}
}

func TestSubmitUnroutedKindStaysCreated(t *testing.T) {
	f := newPipelineFixture(t)

	row, err := f.pipeline.Submit(context.Background(), f.submission(Order{
		Kind: KindKYCPassed, Market: "BTC/USD",
	}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if row.Stage != store.StageCreated {
		t.Errorf("desk-emitted note at stage %s, want Created", row.Stage)
	}
	if len(f.router.routed) != 0 {
		t.Error("desk-emitted note was routed back to the desk")
	}
}
