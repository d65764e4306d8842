// Package book reconstructs a desk's bid/ask ladders from its on-ledger
// account storage: two packed pair words describing the market and, per
// side, a head-pointer slot plus a map slot threading a singly linked list
// of packed entries.
package book

import (
	"context"
	"fmt"

	"github.com/edfixyz/mosaic/internal/codec"
	"github.com/edfixyz/mosaic/internal/ledger"
)

// Storage layout of a desk account. Slot 0 is reserved by the account
// component itself.
const (
	SlotBasePair  uint8 = 1
	SlotQuotePair uint8 = 2
	SlotAskHead   uint8 = 3
	SlotAskMap    uint8 = 4
	SlotBidHead   uint8 = 5
	SlotBidMap    uint8 = 6
)

// maxEntries bounds a single list traversal. A book longer than this is
// treated as corrupt (a next-pointer cycle would otherwise spin forever).
const maxEntries = 10000

// CorruptedBookError reports a broken linked list: an entry id referenced
// but absent from the map slot, or a traversal exceeding maxEntries. The
// whole read fails rather than misstating available liquidity.
type CorruptedBookError struct {
	Desk    string
	Side    string
	EntryID uint64
	Reason  string
}

func (e *CorruptedBookError) Error() string {
	return fmt.Sprintf("corrupted book for desk %s, %s side, entry %d: %s",
		e.Desk, e.Side, e.EntryID, e.Reason)
}

// Entry is one decoded price level.
type Entry struct {
	ID     uint64 `json:"id"`
	Next   uint64 `json:"next"`
	Price  uint64 `json:"price"`
	Amount uint64 `json:"amount"`
}

// PairLeg is one side of the traded pair as stored on-ledger.
type PairLeg struct {
	Code   string `json:"code"`
	Issuer string `json:"issuerAccountId"`
}

// Market is the traded pair decoded from the desk's pair words.
type Market struct {
	Base  PairLeg `json:"base"`
	Quote PairLeg `json:"quote"`
}

// Label returns the market as "BASE/QUOTE".
func (m Market) Label() string { return m.Base.Code + "/" + m.Quote.Code }

// Info is the full reconstructed book state of one desk.
type Info struct {
	Market Market  `json:"market"`
	Bids   []Entry `json:"bids"`
	Asks   []Entry `json:"asks"`
}

// Read reconstructs the book of a desk account through a borrowed ledger
// client. Empty ladders are returned as empty slices, never as an error.
func Read(ctx context.Context, client ledger.Client, network ledger.Network, deskAccountID string) (Info, error) {
	market, err := readMarket(ctx, client, network, deskAccountID)
	if err != nil {
		return Info{}, err
	}

	asks, err := readSide(ctx, client, deskAccountID, "ask", SlotAskHead, SlotAskMap)
	if err != nil {
		return Info{}, err
	}
	bids, err := readSide(ctx, client, deskAccountID, "bid", SlotBidHead, SlotBidMap)
	if err != nil {
		return Info{}, err
	}

	return Info{Market: market, Bids: bids, Asks: asks}, nil
}

func readMarket(ctx context.Context, client ledger.Client, network ledger.Network, deskAccountID string) (Market, error) {
	var market Market
	for _, leg := range []struct {
		slot uint8
		dst  *PairLeg
	}{
		{SlotBasePair, &market.Base},
		{SlotQuotePair, &market.Quote},
	} {
		word, err := client.StorageSlot(ctx, deskAccountID, leg.slot)
		if err != nil {
			return Market{}, fmt.Errorf("read pair slot %d of %s: %w", leg.slot, deskAccountID, err)
		}
		symbol, issuer, err := codec.DecodePair(word)
		if err != nil {
			return Market{}, fmt.Errorf("decode pair slot %d of %s: %w", leg.slot, deskAccountID, err)
		}
		addr, err := codec.EncodeAddress(network.HRP(), issuer)
		if err != nil {
			return Market{}, fmt.Errorf("encode issuer of %s: %w", deskAccountID, err)
		}
		leg.dst.Code = symbol
		leg.dst.Issuer = addr
	}
	return market, nil
}

// readSide walks one linked list from its head slot until the terminator
// id 0, resolving each entry through the side's map slot.
func readSide(ctx context.Context, client ledger.Client, deskAccountID, side string, headSlot, mapSlot uint8) ([]Entry, error) {
	head, err := client.StorageSlot(ctx, deskAccountID, headSlot)
	if err != nil {
		return nil, fmt.Errorf("read %s head of %s: %w", side, deskAccountID, err)
	}

	entries := []Entry{}
	id := head[0]
	for id != 0 {
		if len(entries) >= maxEntries {
			return nil, &CorruptedBookError{
				Desk: deskAccountID, Side: side, EntryID: id,
				Reason: "traversal exceeded the entry bound, list likely cyclic",
			}
		}
		word, err := client.StorageMapItem(ctx, deskAccountID, mapSlot, codec.Word{id, 0, 0, 0})
		if err != nil {
			return nil, fmt.Errorf("read %s entry %d of %s: %w", side, id, deskAccountID, err)
		}
		if word.IsZero() {
			return nil, &CorruptedBookError{
				Desk: deskAccountID, Side: side, EntryID: id,
				Reason: "referenced entry absent from map slot",
			}
		}
		entryID, next, price, amount := codec.DecodeBookEntry(word)
		if entryID != id {
			return nil, &CorruptedBookError{
				Desk: deskAccountID, Side: side, EntryID: id,
				Reason: fmt.Sprintf("entry stores id %d under key %d", entryID, id),
			}
		}
		entries = append(entries, Entry{ID: entryID, Next: next, Price: price, Amount: amount})
		id = next
	}
	return entries, nil
}
