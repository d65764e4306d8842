package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DeskRow is one persisted desk: account identity, traded pair, routing URL
// for note ingestion and the activation flag.
type DeskRow struct {
	AccountID    string
	UserID       string
	Network      string
	BaseCode     string
	BaseIssuer   string
	QuoteCode    string
	QuoteIssuer  string
	OwnerAccount string
	RoutingURL   string
	Active       bool
	CreatedAt    time.Time
}

// Market returns the desk's market label, e.g. "BTC/USD".
func (d DeskRow) Market() string { return d.BaseCode + "/" + d.QuoteCode }

// InsertDesk records a newly created desk. Desks start inactive.
func (s *Store) InsertDesk(ctx context.Context, row DeskRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO desks (account_id, user_id, network, base_code, base_issuer,
		                    quote_code, quote_issuer, owner_account, routing_url, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.AccountID, row.UserID, row.Network, row.BaseCode, row.BaseIssuer,
		row.QuoteCode, row.QuoteIssuer, row.OwnerAccount, row.RoutingURL, boolInt(row.Active))
	if err != nil {
		return fmt.Errorf("insert desk %s: %w", row.AccountID, err)
	}
	return nil
}

// GetDesk returns the desk with the given account id, for any user. Desk
// market data is public; mutation paths check ownership separately.
func (s *Store) GetDesk(ctx context.Context, accountID string) (DeskRow, error) {
	return s.scanDesk(s.db.QueryRowContext(ctx,
		`SELECT account_id, user_id, network, base_code, base_issuer,
		        quote_code, quote_issuer, owner_account, routing_url, active, created_at
		 FROM desks WHERE account_id = ?`, accountID), accountID)
}

// FindDeskByMarket resolves a market label like "BTC/USD" to its active desk
// on a network.
func (s *Store) FindDeskByMarket(ctx context.Context, network, baseCode, quoteCode string) (DeskRow, error) {
	return s.scanDesk(s.db.QueryRowContext(ctx,
		`SELECT account_id, user_id, network, base_code, base_issuer,
		        quote_code, quote_issuer, owner_account, routing_url, active, created_at
		 FROM desks WHERE network = ? AND base_code = ? AND quote_code = ? AND active = 1
		 ORDER BY created_at LIMIT 1`,
		network, baseCode, quoteCode), baseCode+"/"+quoteCode)
}

// SetDeskActive flips a desk's activation flag. Only the owning user may do
// so; a mismatched user sees not-found.
func (s *Store) SetDeskActive(ctx context.Context, userID, accountID string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE desks SET active = ? WHERE account_id = ? AND user_id = ?`,
		boolInt(active), accountID, userID)
	if err != nil {
		return fmt.Errorf("update desk %s: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update desk %s: %w", accountID, err)
	}
	if n == 0 {
		return fmt.Errorf("desk %s: %w", accountID, ErrNotFound)
	}
	return nil
}

func (s *Store) scanDesk(row *sql.Row, ref string) (DeskRow, error) {
	var d DeskRow
	var active int
	err := row.Scan(&d.AccountID, &d.UserID, &d.Network, &d.BaseCode, &d.BaseIssuer,
		&d.QuoteCode, &d.QuoteIssuer, &d.OwnerAccount, &d.RoutingURL, &active, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DeskRow{}, fmt.Errorf("desk %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return DeskRow{}, fmt.Errorf("get desk %s: %w", ref, err)
	}
	d.Active = active != 0
	return d, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
