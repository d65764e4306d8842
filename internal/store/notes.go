package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Desk inbox note lifecycle. Ingested notes start as new; consumption moves
// them to consumed, an undecodable or rejected note to invalid.
const (
	NoteStatusNew      = "new"
	NoteStatusConsumed = "consumed"
	NoteStatusInvalid  = "invalid"
)

// DeskNoteRow is one entry in a desk's note inbox. OrderUUID links the note
// back to the order that produced it when the submitter included one.
type DeskNoteRow struct {
	ID          int64
	DeskAccount string
	OrderUUID   string
	NoteJSON    string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InsertDeskNote appends a received note to a desk's inbox and returns its
// inbox id.
func (s *Store) InsertDeskNote(ctx context.Context, deskAccount, orderUUID, noteJSON string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO desk_notes (desk_account, order_uuid, note_json) VALUES (?, ?, ?)`,
		deskAccount, orderUUID, noteJSON)
	if err != nil {
		return 0, fmt.Errorf("insert desk note for %s: %w", deskAccount, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert desk note for %s: %w", deskAccount, err)
	}
	return id, nil
}

// GetDeskNote returns one inbox entry by id.
func (s *Store) GetDeskNote(ctx context.Context, id int64) (DeskNoteRow, error) {
	var row DeskNoteRow
	err := s.db.QueryRowContext(ctx,
		`SELECT id, desk_account, order_uuid, note_json, status, created_at, updated_at
		 FROM desk_notes WHERE id = ?`, id).
		Scan(&row.ID, &row.DeskAccount, &row.OrderUUID, &row.NoteJSON,
			&row.Status, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DeskNoteRow{}, fmt.Errorf("desk note %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return DeskNoteRow{}, fmt.Errorf("get desk note %d: %w", id, err)
	}
	return row, nil
}

// ListDeskNotes returns a desk's inbox entries with the given status,
// oldest first. An empty status returns the whole inbox.
func (s *Store) ListDeskNotes(ctx context.Context, deskAccount, status string) ([]DeskNoteRow, error) {
	query := `SELECT id, desk_account, order_uuid, note_json, status, created_at, updated_at
	          FROM desk_notes WHERE desk_account = ?`
	args := []any{deskAccount}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list desk notes for %s: %w", deskAccount, err)
	}
	defer rows.Close()

	var out []DeskNoteRow
	for rows.Next() {
		var row DeskNoteRow
		if err := rows.Scan(&row.ID, &row.DeskAccount, &row.OrderUUID, &row.NoteJSON,
			&row.Status, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan desk note: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SetDeskNoteStatus moves an inbox entry to a new lifecycle status.
func (s *Store) SetDeskNoteStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE desk_notes SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("update desk note %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update desk note %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("desk note %d: %w", id, ErrNotFound)
	}
	return nil
}
