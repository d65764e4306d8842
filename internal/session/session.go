// Package session maintains the keyed registry of ledger-client handles.
// One Session exists per (owner secret, network) pair; all concurrent
// requests for that pair share it.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/edfixyz/mosaic/internal/ledger"
)

// Key identifies exactly one ledger-client handle.
type Key struct {
	Secret  [32]byte
	Network ledger.Network
}

// KeyFor derives a session key from an owner secret and network.
func KeyFor(secret [32]byte, network ledger.Network) Key {
	return Key{Secret: secret, Network: network}
}

// Fingerprint returns a short non-reversible identifier for logging.
func (k Key) Fingerprint() string {
	sum := sha256.Sum256(k.Secret[:])
	return hex.EncodeToString(sum[:4]) + "/" + string(k.Network)
}

// Session owns one ledger-client handle. Sessions are created by the Cache
// and shared by every caller holding the same key; callers must not retain
// one past the logical operation that borrowed it.
type Session struct {
	key       Key
	client    ledger.Client
	createdAt time.Time
}

// Key returns the session's identity.
func (s *Session) Key() Key { return s.key }

// Client returns the ledger-client handle bound to this session.
func (s *Session) Client() ledger.Client { return s.client }

// CreatedAt returns when the session finished creation.
func (s *Session) CreatedAt() time.Time { return s.createdAt }
