package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AssetRow is one registered asset faucet. MaxSupply is kept as the decimal
// string the ledger reports; "0" means the supply is unknown.
type AssetRow struct {
	Account   string
	UserID    string
	Symbol    string
	MaxSupply string
	Decimals  uint8
	Verified  bool
	Owner     bool
	Hidden    bool
	CreatedAt time.Time
}

// UpsertAsset inserts or replaces an asset entry keyed by faucet account.
func (s *Store) UpsertAsset(ctx context.Context, row AssetRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (account, user_id, symbol, max_supply, decimals, verified, owner, hidden)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account) DO UPDATE SET
		   symbol = excluded.symbol, max_supply = excluded.max_supply,
		   decimals = excluded.decimals, verified = excluded.verified,
		   owner = excluded.owner, hidden = excluded.hidden`,
		row.Account, row.UserID, row.Symbol, row.MaxSupply, row.Decimals,
		boolInt(row.Verified), boolInt(row.Owner), boolInt(row.Hidden))
	if err != nil {
		return fmt.Errorf("upsert asset %s: %w", row.Account, err)
	}
	return nil
}

// GetAsset returns one asset entry by faucet account.
func (s *Store) GetAsset(ctx context.Context, userID, account string) (AssetRow, error) {
	var row AssetRow
	var verified, owner, hidden int
	err := s.db.QueryRowContext(ctx,
		`SELECT account, user_id, symbol, max_supply, decimals, verified, owner, hidden, created_at
		 FROM assets WHERE account = ? AND user_id = ?`, account, userID).
		Scan(&row.Account, &row.UserID, &row.Symbol, &row.MaxSupply, &row.Decimals,
			&verified, &owner, &hidden, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AssetRow{}, fmt.Errorf("asset %s: %w", account, ErrNotFound)
	}
	if err != nil {
		return AssetRow{}, fmt.Errorf("get asset %s: %w", account, err)
	}
	row.Verified = verified != 0
	row.Owner = owner != 0
	row.Hidden = hidden != 0
	return row, nil
}

// ListAssets returns a user's visible assets, oldest first.
func (s *Store) ListAssets(ctx context.Context, userID string) ([]AssetRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account, user_id, symbol, max_supply, decimals, verified, owner, hidden, created_at
		 FROM assets WHERE user_id = ? AND hidden = 0 ORDER BY created_at, account`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assets for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []AssetRow
	for rows.Next() {
		var row AssetRow
		var verified, owner, hidden int
		if err := rows.Scan(&row.Account, &row.UserID, &row.Symbol, &row.MaxSupply, &row.Decimals,
			&verified, &owner, &hidden, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		row.Verified = verified != 0
		row.Owner = owner != 0
		row.Hidden = hidden != 0
		out = append(out, row)
	}
	return out, rows.Err()
}
