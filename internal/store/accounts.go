package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AccountType is the role an account plays on the platform.
type AccountType string

const (
	AccountClient    AccountType = "Client"
	AccountDesk      AccountType = "Desk"
	AccountFaucet    AccountType = "Faucet"
	AccountLiquidity AccountType = "Liquidity"
)

// AccountRow is one directory entry. ID is the bech32 ledger address.
type AccountRow struct {
	ID        string
	UserID    string
	Network   string
	Type      AccountType
	Name      string
	CreatedAt time.Time
}

// InsertAccount records a newly created ledger account for a user.
func (s *Store) InsertAccount(ctx context.Context, row AccountRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, network, typ, name) VALUES (?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.Network, string(row.Type), row.Name)
	if err != nil {
		return fmt.Errorf("insert account %s: %w", row.ID, err)
	}
	return nil
}

// GetAccount returns the account with the given id owned by userID.
func (s *Store) GetAccount(ctx context.Context, userID, id string) (AccountRow, error) {
	var row AccountRow
	var typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, network, typ, name, created_at FROM accounts WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&row.ID, &row.UserID, &row.Network, &typ, &row.Name, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AccountRow{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return AccountRow{}, fmt.Errorf("get account %s: %w", id, err)
	}
	row.Type = AccountType(typ)
	return row, nil
}

// ListAccounts returns every account a user holds on a network, oldest first.
func (s *Store) ListAccounts(ctx context.Context, userID, network string) ([]AccountRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, network, typ, name, created_at FROM accounts
		 WHERE user_id = ? AND network = ? ORDER BY created_at, id`,
		userID, network)
	if err != nil {
		return nil, fmt.Errorf("list accounts for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []AccountRow
	for rows.Next() {
		var row AccountRow
		var typ string
		if err := rows.Scan(&row.ID, &row.UserID, &row.Network, &typ, &row.Name, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		row.Type = AccountType(typ)
		out = append(out, row)
	}
	return out, rows.Err()
}
