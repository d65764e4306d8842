package book

import (
	"context"
	"errors"
	"testing"

	"github.com/edfixyz/mosaic/internal/codec"
	"github.com/edfixyz/mosaic/internal/ledger"
)

const deskID = "mtst1qdeskbook"

func seedMarket(t *testing.T, client *ledger.MemoryClient) (base, quote codec.IssuerID) {
	t.Helper()
	base[0] = 0x11
	quote[0] = 0x22

	baseWord, err := codec.EncodePair("BTC", base)
	if err != nil {
		t.Fatalf("encode base pair: %v", err)
	}
	quoteWord, err := codec.EncodePair("USD", quote)
	if err != nil {
		t.Fatalf("encode quote pair: %v", err)
	}
	client.SetStorageSlot(deskID, SlotBasePair, baseWord)
	client.SetStorageSlot(deskID, SlotQuotePair, quoteWord)
	return base, quote
}

func seedEntry(t *testing.T, client *ledger.MemoryClient, mapSlot uint8, id, next, price, amount uint64) {
	t.Helper()
	word, err := codec.EncodeBookEntry(id, next, price, amount)
	if err != nil {
		t.Fatalf("encode entry %d: %v", id, err)
	}
	client.SetStorageMapItem(deskID, mapSlot, codec.Word{id, 0, 0, 0}, word)
}

func TestReadRoundTrip(t *testing.T) {
	client := ledger.NewMemoryClient(ledger.NetworkTestnet)
	baseIssuer, _ := seedMarket(t, client)

	// asks: 10 -> 11 -> 12, bids: 20
	client.SetStorageSlot(deskID, SlotAskHead, codec.Word{10, 0, 0, 0})
	seedEntry(t, client, SlotAskMap, 10, 11, 95000, 2)
	seedEntry(t, client, SlotAskMap, 11, 12, 95100, 5)
	seedEntry(t, client, SlotAskMap, 12, 0, 95500, 1)
	client.SetStorageSlot(deskID, SlotBidHead, codec.Word{20, 0, 0, 0})
	seedEntry(t, client, SlotBidMap, 20, 0, 94800, 3)

	info, err := Read(context.Background(), client, ledger.NetworkTestnet, deskID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if info.Market.Label() != "BTC/USD" {
		t.Errorf("market = %s, want BTC/USD", info.Market.Label())
	}
	wantBase, err := codec.EncodeAddress(codec.HRPTestnet, baseIssuer)
	if err != nil {
		t.Fatalf("encode address: %v", err)
	}
	if info.Market.Base.Issuer != wantBase {
		t.Errorf("base issuer = %s, want %s", info.Market.Base.Issuer, wantBase)
	}

	wantAsks := []Entry{
		{ID: 10, Next: 11, Price: 95000, Amount: 2},
		{ID: 11, Next: 12, Price: 95100, Amount: 5},
		{ID: 12, Next: 0, Price: 95500, Amount: 1},
	}
	if len(info.Asks) != len(wantAsks) {
		t.Fatalf("asks = %d entries, want %d", len(info.Asks), len(wantAsks))
	}
	for i, want := range wantAsks {
		if info.Asks[i] != want {
			t.Errorf("ask[%d] = %+v, want %+v", i, info.Asks[i], want)
		}
	}
	if len(info.Bids) != 1 || info.Bids[0].Price != 94800 {
		t.Errorf("bids = %+v, want one entry at 94800", info.Bids)
	}
}

func TestReadEmptyLadders(t *testing.T) {
	client := ledger.NewMemoryClient(ledger.NetworkTestnet)
	seedMarket(t, client)
	// head slots left absent: both read as the terminator

	info, err := Read(context.Background(), client, ledger.NetworkTestnet, deskID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(info.Bids) != 0 || len(info.Asks) != 0 {
		t.Errorf("empty book read as %d bids / %d asks", len(info.Bids), len(info.Asks))
	}
	if info.Bids == nil || info.Asks == nil {
		t.Error("empty ladders must be empty slices, not nil")
	}
}

func TestReadMissingEntryFailsClosed(t *testing.T) {
	client := ledger.NewMemoryClient(ledger.NetworkTestnet)
	seedMarket(t, client)

	// entry 11 is referenced but never written
	client.SetStorageSlot(deskID, SlotAskHead, codec.Word{10, 0, 0, 0})
	seedEntry(t, client, SlotAskMap, 10, 11, 95000, 2)

	_, err := Read(context.Background(), client, ledger.NetworkTestnet, deskID)
	var corrupted *CorruptedBookError
	if !errors.As(err, &corrupted) {
		t.Fatalf("got %T (%v), want CorruptedBookError", err, err)
	}
	if corrupted.EntryID != 11 || corrupted.Side != "ask" {
		t.Errorf("error names entry %d on %s side, want 11 on ask", corrupted.EntryID, corrupted.Side)
	}
}

func TestReadMismatchedEntryID(t *testing.T) {
	client := ledger.NewMemoryClient(ledger.NetworkTestnet)
	seedMarket(t, client)

	client.SetStorageSlot(deskID, SlotBidHead, codec.Word{20, 0, 0, 0})
	// entry stored under key 20 claims id 21
	word, err := codec.EncodeBookEntry(21, 0, 94800, 3)
	if err != nil {
		t.Fatalf("encode entry: %v", err)
	}
	client.SetStorageMapItem(deskID, SlotBidMap, codec.Word{20, 0, 0, 0}, word)

	_, err = Read(context.Background(), client, ledger.NetworkTestnet, deskID)
	var corrupted *CorruptedBookError
	if !errors.As(err, &corrupted) {
		t.Fatalf("got %T (%v), want CorruptedBookError", err, err)
	}
}

func TestReadCyclicListBounded(t *testing.T) {
	client := ledger.NewMemoryClient(ledger.NetworkTestnet)
	seedMarket(t, client)

	// 10 -> 11 -> 10: must terminate with an error, not spin
	client.SetStorageSlot(deskID, SlotAskHead, codec.Word{10, 0, 0, 0})
	seedEntry(t, client, SlotAskMap, 10, 11, 95000, 2)
	seedEntry(t, client, SlotAskMap, 11, 10, 95100, 5)

	_, err := Read(context.Background(), client, ledger.NetworkTestnet, deskID)
	var corrupted *CorruptedBookError
	if !errors.As(err, &corrupted) {
		t.Fatalf("got %T (%v), want CorruptedBookError", err, err)
	}
}

func TestReadMissingMarketWord(t *testing.T) {
	client := ledger.NewMemoryClient(ledger.NetworkTestnet)
	client.SetStorageSlot(deskID, SlotAskHead, codec.Word{})
	// pair slots left zero: symbol decodes empty

	if _, err := Read(context.Background(), client, ledger.NetworkTestnet, deskID); err == nil {
		t.Fatal("zero pair word must not decode as a market")
	}
}
