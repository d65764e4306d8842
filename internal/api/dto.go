package api

import (
	"encoding/json"
	"time"

	"github.com/edfixyz/mosaic/internal/order"
	"github.com/edfixyz/mosaic/internal/store"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NetworkRequest selects the chain an operation acts on.
type NetworkRequest struct {
	Network string `json:"network"`
}

// CreateOrderRequest wraps one order submission.
type CreateOrderRequest struct {
	Network   string      `json:"network"`
	AccountID string      `json:"accountId"`
	Order     order.Order `json:"order"`
}

// OrderResponse is one order record on the wire.
type OrderResponse struct {
	UUID         string          `json:"uuid"`
	OrderType    string          `json:"orderType"`
	Payload      json.RawMessage `json:"payload"`
	Stage        string          `json:"stage"`
	Status       string          `json:"status"`
	OwnerAccount string          `json:"ownerAccountId"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func orderResponse(row store.OrderRow) OrderResponse {
	return OrderResponse{
		UUID:         row.UUID,
		OrderType:    row.OrderType,
		Payload:      json.RawMessage(row.Payload),
		Stage:        string(row.Stage),
		Status:       string(row.Status),
		OwnerAccount: row.OwnerAccount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// AccountStatusRequest names one account on a network.
type AccountStatusRequest struct {
	Network   string `json:"network"`
	AccountID string `json:"accountId"`
}

// DeskInfoRequest names one desk on a network.
type DeskInfoRequest struct {
	Network     string `json:"network"`
	DeskAccount string `json:"deskAccount"`
}

// ConsumeNoteRequest consumes one desk inbox note with an account.
type ConsumeNoteRequest struct {
	Network   string `json:"network"`
	AccountID string `json:"accountId"`
	NoteID    int64  `json:"noteId"`
}

// ConsumeNoteResponse reports the settlement transaction.
type ConsumeNoteResponse struct {
	TransactionID string `json:"transactionId"`
}

// DeskPushNoteRequest is the desk ingestion body. DeskAccount is only
// consulted when the desk is not named in the URL path.
type DeskPushNoteRequest struct {
	DeskAccount string          `json:"deskAccount,omitempty"`
	Note        json.RawMessage `json:"note"`
}

// DeskPushNoteResponse returns the inbox id of the ingested note.
type DeskPushNoteResponse struct {
	NoteID int64 `json:"noteId"`
}

// FlushResponse reports how many cached sessions were dropped.
type FlushResponse struct {
	Flushed int `json:"flushed"`
}

// VersionResponse reports the build version.
type VersionResponse struct {
	Version string `json:"version"`
}
