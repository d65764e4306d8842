// Package ledger defines the boundary to the external ledger client: the
// runtime holding key material, synchronizing chain state, and producing
// settlement notes. Only the handful of operations this server actually
// performs are exposed. Two implementations exist: RemoteClient speaks to a
// ledger client service over HTTP, MemoryClient backs tests and standalone
// runs.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/edfixyz/mosaic/internal/codec"
)

// ErrAccountNotFound is returned when the ledger client store has no record
// for the requested account.
var ErrAccountNotFound = errors.New("account not found in ledger store")

// Network identifies the chain a client is bound to.
type Network string

const (
	NetworkTestnet  Network = "Testnet"
	NetworkLocalnet Network = "Localnet"
)

// ParseNetwork parses a network name, case-insensitively.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "Testnet", "testnet":
		return NetworkTestnet, nil
	case "Localnet", "localnet":
		return NetworkLocalnet, nil
	default:
		return "", fmt.Errorf("unsupported network %q, expected Testnet or Localnet", s)
	}
}

// HRP returns the address prefix used for this network.
func (n Network) HRP() string {
	if n == NetworkLocalnet {
		return codec.HRPLocalnet
	}
	return codec.HRPTestnet
}

func (n Network) String() string { return string(n) }

// NoteKind is the visibility of a settlement note.
type NoteKind string

const (
	NotePrivate NoteKind = "Private"
	NotePublic  NoteKind = "Public"
)

// Note is a compiled, cryptographically valid settlement note. The payload
// is an opaque hex blob only the ledger can interpret.
type Note struct {
	Version string   `json:"version"`
	Kind    NoteKind `json:"note_type"`
	Payload string   `json:"payload"`
}

// NoteInput is a single named input passed to a note program. Exactly one
// of Word or Element is set.
type NoteInput struct {
	Name    string      `json:"name"`
	Word    *codec.Word `json:"word,omitempty"`
	Element *uint64     `json:"element,omitempty"`
}

// NoteDraft describes a note before compilation: the program it runs and
// the inputs baked into it.
type NoteDraft struct {
	Kind   NoteKind    `json:"note_type"`
	Script string      `json:"script"`
	Inputs []NoteInput `json:"inputs"`
}

// Asset is one asset position held by an account.
type Asset struct {
	Faucet   string `json:"faucet"`
	Amount   uint64 `json:"amount"`
	Fungible bool   `json:"fungible"`
}

// AccountRecord is the synced view of one on-ledger account.
type AccountRecord struct {
	ID          string  `json:"account_id"`
	StorageMode string  `json:"storage_mode"` // Private or Public
	Nonce       uint64  `json:"nonce"`
	Assets      []Asset `json:"assets"`
}

// SyncSummary reports the outcome of one state sync.
type SyncSummary struct {
	BlockNum        uint64 `json:"block_num"`
	NewPublicNotes  int    `json:"new_public_notes"`
	CommittedNotes  int    `json:"committed_notes"`
	ConsumedNotes   int    `json:"consumed_notes"`
	UpdatedAccounts int    `json:"updated_accounts"`
}

// Client is one ledger-client handle bound to a single owner secret and
// network. Handles are safe for concurrent use; every blocking operation
// takes a context. Note compilation inside BuildNote performs cryptographic
// proving and is by far the most expensive call.
type Client interface {
	// SyncState pulls the latest chain state into the client's local store.
	SyncState(ctx context.Context) (SyncSummary, error)

	// NewWallet creates a private wallet account and returns its address.
	NewWallet(ctx context.Context) (string, error)

	// NewFaucet creates a public fungible faucet account and returns its
	// address.
	NewFaucet(ctx context.Context, symbol string, decimals uint8, maxSupply uint64) (string, error)

	// GetAccount fetches the synced record of an account the client tracks.
	// Returns ErrAccountNotFound when the account is unknown.
	GetAccount(ctx context.Context, accountID string) (*AccountRecord, error)

	// ImportAccount starts tracking a foreign public account so its storage
	// can be read.
	ImportAccount(ctx context.Context, accountID string) error

	// StorageSlot reads one storage slot of a tracked account. Absent slots
	// read as the zero word.
	StorageSlot(ctx context.Context, accountID string, slot uint8) (codec.Word, error)

	// StorageMapItem reads one entry of a storage map slot. Absent keys read
	// as the zero word.
	StorageMapItem(ctx context.Context, accountID string, slot uint8, key codec.Word) (codec.Word, error)

	// BuildNote compiles, proves and signs a note issued by the given
	// account, and commits it to the chain.
	BuildNote(ctx context.Context, accountID string, draft NoteDraft) (Note, error)

	// ConsumeNote consumes a note with the given account and returns the
	// transaction id.
	ConsumeNote(ctx context.Context, accountID string, note Note) (string, error)

	// FundAccount mints from an owned faucet to the target account and
	// returns the transaction id.
	FundAccount(ctx context.Context, faucetID, targetID string, amount uint64) (string, error)

	// Close releases the handle's resources.
	Close() error
}
