package order

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/edfixyz/mosaic/internal/codec"
	"github.com/edfixyz/mosaic/internal/ledger"
)

// note program per kind
var kindScript = map[Kind]string{
	KindKYCPassed:               "notes/desk_kyc_passed",
	KindQuoteRequestOffer:       "notes/desk_quote_request_offer",
	KindQuoteRequestNoOffer:     "notes/desk_quote_request_no_offer",
	KindLimitBuyOrderLocked:     "notes/desk_limit_buy_locked",
	KindLimitBuyOrderNotLocked:  "notes/desk_limit_buy_not_locked",
	KindLimitSellOrderLocked:    "notes/desk_limit_sell_locked",
	KindLimitSellOrderNotLocked: "notes/desk_limit_sell_not_locked",
	KindQuoteRequest:            "notes/client_quote_request",
	KindLimitOrder:              "notes/client_limit_order",
	KindLiquidityOffer:          "notes/lp_liquidity_offer",
}

// uuidWord packs a 128-bit uuid into the first two limbs of a word,
// big-endian halves first.
func uuidWord(s string) (codec.Word, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return codec.Word{}, fmt.Errorf("parse uuid %q: %w", s, err)
	}
	high := binary.BigEndian.Uint64(id[0:8])
	low := binary.BigEndian.Uint64(id[8:16])
	return codec.Word{high, low, 0, 0}, nil
}

// draft builds the note program inputs for an order. FundAccount never
// reaches here; it settles through the ledger's payment path directly.
func draft(o Order) (ledger.NoteDraft, error) {
	script, ok := kindScript[o.Kind]
	if !ok {
		return ledger.NoteDraft{}, fmt.Errorf("order kind %s has no note program", o.Kind)
	}

	d := ledger.NoteDraft{Kind: ledger.NotePrivate, Script: script}
	shape := kindShape[o.Kind]

	if shape.uuid {
		w, err := uuidWord(o.UUID)
		if err != nil {
			return ledger.NoteDraft{}, err
		}
		d.Inputs = append(d.Inputs, ledger.NoteInput{Name: "uuid", Word: &w})
	}
	if shape.side {
		sideEl := uint64(0)
		if o.Side == SideSell {
			sideEl = 1
		}
		v := sideEl
		d.Inputs = append(d.Inputs, ledger.NoteInput{Name: "side", Element: &v})
	}
	if shape.amount {
		v := o.Amount
		d.Inputs = append(d.Inputs, ledger.NoteInput{Name: "amount", Element: &v})
	}
	if shape.price {
		v := o.Price
		d.Inputs = append(d.Inputs, ledger.NoteInput{Name: "price", Element: &v})
	}
	return d, nil
}

// Envelope is the wire form of a routed note: the order context plus the
// compiled note, as the desk ingestion endpoint expects it.
type Envelope struct {
	Market string      `json:"market"`
	Order  Order       `json:"order"`
	Note   ledger.Note `json:"note"`
}
