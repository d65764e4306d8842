package order

import "fmt"

// ValidationError rejects a malformed order before any session or network
// work happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + e.Reason
}

// SettlementError wraps a note construction or signing failure from the
// ledger. No order record exists for the uuid: nothing durable happened.
type SettlementError struct {
	UUID string
	Err  error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement failed for order %s: %v", e.UUID, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

// RoutingError wraps a desk ingestion failure. The order record exists with
// stage Failed because the note was already produced; the caller may retry
// routing.
type RoutingError struct {
	UUID string
	Desk string
	Err  error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing order %s to desk %s failed: %v", e.UUID, e.Desk, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }
