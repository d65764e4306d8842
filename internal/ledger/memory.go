package ledger

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/edfixyz/mosaic/internal/codec"
	"github.com/edfixyz/mosaic/internal/version"
)

// MemoryClient is an in-memory Client used by tests and standalone runs.
// Account identifiers are derived from a per-client seed so that distinct
// clients produce distinct addresses.
type MemoryClient struct {
	network Network

	// Latency is added to every call, letting tests model a slow ledger.
	Latency time.Duration

	mu       sync.Mutex
	seed     uint64
	nextID   uint64
	blockNum uint64
	accounts map[string]*AccountRecord
	slots    map[string]map[uint8]codec.Word
	maps     map[string]map[uint8]map[codec.Word]codec.Word
	notes    uint64
	closed   bool
}

var _ Client = (*MemoryClient)(nil)

var memorySeed struct {
	mu   sync.Mutex
	next uint64
}

// NewMemoryClient creates an empty in-memory client for the given network.
func NewMemoryClient(network Network) *MemoryClient {
	memorySeed.mu.Lock()
	memorySeed.next++
	seed := memorySeed.next
	memorySeed.mu.Unlock()

	return &MemoryClient{
		network:  network,
		seed:     seed,
		accounts: make(map[string]*AccountRecord),
		slots:    make(map[string]map[uint8]codec.Word),
		maps:     make(map[string]map[uint8]map[codec.Word]codec.Word),
	}
}

func (c *MemoryClient) wait(ctx context.Context) error {
	if c.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(c.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *MemoryClient) newAddress() (string, error) {
	c.nextID++
	var id codec.IssuerID
	binary.BigEndian.PutUint64(id[:8], c.seed)
	binary.BigEndian.PutUint32(id[8:12], uint32(c.nextID))
	return codec.EncodeAddress(c.network.HRP(), id)
}

// SyncState advances the simulated chain by one block.
func (c *MemoryClient) SyncState(ctx context.Context) (SyncSummary, error) {
	if err := c.wait(ctx); err != nil {
		return SyncSummary{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockNum++
	return SyncSummary{BlockNum: c.blockNum, UpdatedAccounts: len(c.accounts)}, nil
}

// NewWallet creates a private wallet account.
func (c *MemoryClient) NewWallet(ctx context.Context) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	addr, err := c.newAddress()
	if err != nil {
		return "", err
	}
	c.accounts[addr] = &AccountRecord{ID: addr, StorageMode: "Private"}
	return addr, nil
}

// NewFaucet creates a public faucet account.
func (c *MemoryClient) NewFaucet(ctx context.Context, symbol string, decimals uint8, maxSupply uint64) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if _, err := codec.EncodeSymbol(symbol); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	addr, err := c.newAddress()
	if err != nil {
		return "", err
	}
	c.accounts[addr] = &AccountRecord{ID: addr, StorageMode: "Public"}
	return addr, nil
}

// GetAccount fetches a tracked account record.
func (c *MemoryClient) GetAccount(ctx context.Context, accountID string) (*AccountRecord, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	copied := *record
	copied.Assets = append([]Asset(nil), record.Assets...)
	return &copied, nil
}

// ImportAccount starts tracking a foreign account.
func (c *MemoryClient) ImportAccount(ctx context.Context, accountID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if _, _, err := codec.DecodeAddress(accountID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[accountID]; !ok {
		c.accounts[accountID] = &AccountRecord{ID: accountID, StorageMode: "Public"}
	}
	return nil
}

// StorageSlot reads a storage slot; absent slots read as the zero word.
func (c *MemoryClient) StorageSlot(ctx context.Context, accountID string, slot uint8) (codec.Word, error) {
	if err := c.wait(ctx); err != nil {
		return codec.Word{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[accountID]; !ok {
		return codec.Word{}, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	return c.slots[accountID][slot], nil
}

// StorageMapItem reads a storage map entry; absent keys read as the zero word.
func (c *MemoryClient) StorageMapItem(ctx context.Context, accountID string, slot uint8, key codec.Word) (codec.Word, error) {
	if err := c.wait(ctx); err != nil {
		return codec.Word{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[accountID]; !ok {
		return codec.Word{}, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	return c.maps[accountID][slot][key], nil
}

// BuildNote produces an opaque note payload from the draft.
func (c *MemoryClient) BuildNote(ctx context.Context, accountID string, draft NoteDraft) (Note, error) {
	if err := c.wait(ctx); err != nil {
		return Note{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[accountID]; !ok {
		return Note{}, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	c.notes++
	payload := make([]byte, 16)
	binary.BigEndian.PutUint64(payload[:8], c.seed)
	binary.BigEndian.PutUint64(payload[8:], c.notes)
	return Note{
		Version: version.String,
		Kind:    draft.Kind,
		Payload: hex.EncodeToString(payload),
	}, nil
}

// ConsumeNote consumes a note and returns a synthetic transaction id.
func (c *MemoryClient) ConsumeNote(ctx context.Context, accountID string, note Note) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if _, err := hex.DecodeString(note.Payload); err != nil {
		return "", fmt.Errorf("malformed note payload: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[accountID]; !ok {
		return "", fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	c.blockNum++
	return fmt.Sprintf("0x%016x%016x", c.seed, c.blockNum), nil
}

// FundAccount credits the target account with faucet tokens.
func (c *MemoryClient) FundAccount(ctx context.Context, faucetID, targetID string, amount uint64) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[faucetID]; !ok {
		return "", fmt.Errorf("%w: %s", ErrAccountNotFound, faucetID)
	}
	target, ok := c.accounts[targetID]
	if !ok {
		target = &AccountRecord{ID: targetID, StorageMode: "Private"}
		c.accounts[targetID] = target
	}
	for i := range target.Assets {
		if target.Assets[i].Faucet == faucetID {
			target.Assets[i].Amount += amount
			c.blockNum++
			return fmt.Sprintf("0x%016x%016x", c.seed, c.blockNum), nil
		}
	}
	target.Assets = append(target.Assets, Asset{Faucet: faucetID, Amount: amount, Fungible: true})
	c.blockNum++
	return fmt.Sprintf("0x%016x%016x", c.seed, c.blockNum), nil
}

// Close marks the client closed.
func (c *MemoryClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// SetStorageSlot seeds a storage slot value. Test helper.
func (c *MemoryClient) SetStorageSlot(accountID string, slot uint8, value codec.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[accountID]; !ok {
		c.accounts[accountID] = &AccountRecord{ID: accountID, StorageMode: "Public"}
	}
	if c.slots[accountID] == nil {
		c.slots[accountID] = make(map[uint8]codec.Word)
	}
	c.slots[accountID][slot] = value
}

// SetStorageMapItem seeds a storage map entry. Test helper.
func (c *MemoryClient) SetStorageMapItem(accountID string, slot uint8, key, value codec.Word) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.accounts[accountID]; !ok {
		c.accounts[accountID] = &AccountRecord{ID: accountID, StorageMode: "Public"}
	}
	if c.maps[accountID] == nil {
		c.maps[accountID] = make(map[uint8]map[codec.Word]codec.Word)
	}
	if c.maps[accountID][slot] == nil {
		c.maps[accountID][slot] = make(map[codec.Word]codec.Word)
	}
	c.maps[accountID][slot][key] = value
}
