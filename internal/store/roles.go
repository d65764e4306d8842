package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RoleSettings are per-user capability flags. Unset users default to
// all-false; reading a missing row is not an error.
type RoleSettings struct {
	IsClient            bool `json:"isClient"`
	IsLiquidityProvider bool `json:"isLiquidityProvider"`
	IsDeskManager       bool `json:"isDeskManager"`
}

// GetRoles returns a user's role settings, zero-valued when never set.
func (s *Store) GetRoles(ctx context.Context, userID string) (RoleSettings, error) {
	var r RoleSettings
	var client, lp, dm int
	err := s.db.QueryRowContext(ctx,
		`SELECT is_client, is_liquidity_provider, is_desk_manager FROM roles WHERE user_id = ?`,
		userID).Scan(&client, &lp, &dm)
	if errors.Is(err, sql.ErrNoRows) {
		return RoleSettings{}, nil
	}
	if err != nil {
		return RoleSettings{}, fmt.Errorf("get roles for %s: %w", userID, err)
	}
	r.IsClient = client != 0
	r.IsLiquidityProvider = lp != 0
	r.IsDeskManager = dm != 0
	return r, nil
}

// SetRoles stores a user's role settings, replacing any previous values.
func (s *Store) SetRoles(ctx context.Context, userID string, r RoleSettings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO roles (user_id, is_client, is_liquidity_provider, is_desk_manager)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   is_client = excluded.is_client,
		   is_liquidity_provider = excluded.is_liquidity_provider,
		   is_desk_manager = excluded.is_desk_manager`,
		userID, boolInt(r.IsClient), boolInt(r.IsLiquidityProvider), boolInt(r.IsDeskManager))
	if err != nil {
		return fmt.Errorf("set roles for %s: %w", userID, err)
	}
	return nil
}
