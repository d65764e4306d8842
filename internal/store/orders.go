package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Stage is the processing step an order record has reached. Stages only
// advance: Created -> Routed -> Committed or Failed.
type Stage string

const (
	StageCreated   Stage = "Created"
	StageRouted    Stage = "Routed"
	StageCommitted Stage = "Committed"
	StageFailed    Stage = "Failed"
)

// Status is the outcome annotation of the latest stage, orthogonal to it.
type Status string

const (
	StatusPending Status = "Pending"
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
)

// stageRank orders stages for the monotonicity check. Committed and Failed
// are both terminal.
func stageRank(s Stage) int {
	switch s {
	case StageCreated:
		return 0
	case StageRouted:
		return 1
	case StageCommitted, StageFailed:
		return 2
	default:
		return -1
	}
}

// OrderRow is one persisted order record. Records are append-only audit
// rows: stage and status are the only mutable columns.
type OrderRow struct {
	UUID         string
	UserID       string
	OrderType    string
	Payload      string
	Stage        Stage
	Status       Status
	OwnerAccount string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InsertOrder persists a new order record. A duplicate uuid yields
// DuplicateOrderError, never a second row.
func (s *Store) InsertOrder(ctx context.Context, row OrderRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (uuid, user_id, order_type, payload, stage, status, owner_account)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.UUID, row.UserID, row.OrderType, row.Payload,
		string(row.Stage), string(row.Status), row.OwnerAccount)
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateOrderError{UUID: row.UUID}
		}
		return fmt.Errorf("insert order %s: %w", row.UUID, err)
	}
	return nil
}

// AdvanceOrder moves an order to a new stage and status. The update is
// rejected with StageRegressionError if the stored stage is already past
// the requested one.
func (s *Store) AdvanceOrder(ctx context.Context, uuid string, stage Stage, status Status) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT stage FROM orders WHERE uuid = ?`, uuid).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order %s: %w", uuid, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read order %s: %w", uuid, err)
		}
		if stageRank(stage) < stageRank(Stage(current)) {
			return &StageRegressionError{UUID: uuid, From: Stage(current), To: stage}
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET stage = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE uuid = ?`,
			string(stage), string(status), uuid)
		if err != nil {
			return fmt.Errorf("update order %s: %w", uuid, err)
		}
		return nil
	})
}

// GetOrder returns one order record by uuid.
func (s *Store) GetOrder(ctx context.Context, uuid string) (OrderRow, error) {
	var row OrderRow
	var stage, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT uuid, user_id, order_type, payload, stage, status, owner_account, created_at, updated_at
		 FROM orders WHERE uuid = ?`, uuid).
		Scan(&row.UUID, &row.UserID, &row.OrderType, &row.Payload,
			&stage, &status, &row.OwnerAccount, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderRow{}, fmt.Errorf("order %s: %w", uuid, ErrNotFound)
	}
	if err != nil {
		return OrderRow{}, fmt.Errorf("get order %s: %w", uuid, err)
	}
	row.Stage = Stage(stage)
	row.Status = Status(status)
	return row, nil
}

// ListOrders returns a user's order records, newest first.
func (s *Store) ListOrders(ctx context.Context, userID string) ([]OrderRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, user_id, order_type, payload, stage, status, owner_account, created_at, updated_at
		 FROM orders WHERE user_id = ? ORDER BY created_at DESC, uuid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []OrderRow
	for rows.Next() {
		var row OrderRow
		var stage, status string
		if err := rows.Scan(&row.UUID, &row.UserID, &row.OrderType, &row.Payload,
			&stage, &status, &row.OwnerAccount, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		row.Stage = Stage(stage)
		row.Status = Status(status)
		out = append(out, row)
	}
	return out, rows.Err()
}

// FindOrderByNote resolves the order linked to a desk inbox note, if any.
func (s *Store) FindOrderByNote(ctx context.Context, noteID int64) (OrderRow, error) {
	var uuid string
	err := s.db.QueryRowContext(ctx,
		`SELECT order_uuid FROM desk_notes WHERE id = ?`, noteID).Scan(&uuid)
	if errors.Is(err, sql.ErrNoRows) || uuid == "" {
		return OrderRow{}, fmt.Errorf("note %d order link: %w", noteID, ErrNotFound)
	}
	if err != nil {
		return OrderRow{}, fmt.Errorf("resolve note %d: %w", noteID, err)
	}
	return s.GetOrder(ctx, uuid)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
