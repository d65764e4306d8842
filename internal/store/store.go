// Package store is the relational collaborator behind the directory,
// pipeline and registry: accounts, desks, order records, assets, role
// settings and the desk note inbox, all in one sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// DuplicateOrderError is returned when an order uuid is submitted twice.
// The uuid is the natural dedup key; a resubmission never creates a second
// record.
type DuplicateOrderError struct {
	UUID string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("order %s already exists", e.UUID)
}

// StageRegressionError is returned when an order stage update would move
// the record backwards. Stages only advance.
type StageRegressionError struct {
	UUID string
	From Stage
	To   Stage
}

func (e *StageRegressionError) Error() string {
	return fmt.Sprintf("order %s stage cannot move from %s to %s", e.UUID, e.From, e.To)
}

// Store wraps the sqlite database. All methods are safe for concurrent use;
// sqlite serializes writers internally.
type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string, log *logrus.Entry) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// A single connection sidesteps sqlite's multi-writer locking errors.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			network     TEXT NOT NULL,
			typ         TEXT NOT NULL,
			name        TEXT NOT NULL DEFAULT '',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id, network)`,
		`CREATE TABLE IF NOT EXISTS desks (
			account_id    TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			network       TEXT NOT NULL,
			base_code     TEXT NOT NULL,
			base_issuer   TEXT NOT NULL,
			quote_code    TEXT NOT NULL,
			quote_issuer  TEXT NOT NULL,
			owner_account TEXT NOT NULL,
			routing_url   TEXT NOT NULL DEFAULT '',
			active        INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_desks_market ON desks(network, base_code, quote_code)`,
		`CREATE TABLE IF NOT EXISTS orders (
			uuid          TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			order_type    TEXT NOT NULL,
			payload       TEXT NOT NULL,
			stage         TEXT NOT NULL,
			status        TEXT NOT NULL,
			owner_account TEXT NOT NULL,
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id)`,
		`CREATE TABLE IF NOT EXISTS assets (
			account     TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			max_supply  TEXT NOT NULL,
			decimals    INTEGER NOT NULL,
			verified    INTEGER NOT NULL DEFAULT 0,
			owner       INTEGER NOT NULL DEFAULT 0,
			hidden      INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS roles (
			user_id               TEXT PRIMARY KEY,
			is_client             INTEGER NOT NULL DEFAULT 0,
			is_liquidity_provider INTEGER NOT NULL DEFAULT 0,
			is_desk_manager       INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS desk_notes (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			desk_account TEXT NOT NULL,
			order_uuid   TEXT NOT NULL DEFAULT '',
			note_json    TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'new',
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_desk_notes_desk ON desk_notes(desk_account, status)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on nil error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
