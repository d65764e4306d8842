package api

import (
	"errors"
	"net/http"

	"github.com/edfixyz/mosaic/internal/account"
	"github.com/edfixyz/mosaic/internal/book"
	"github.com/edfixyz/mosaic/internal/ledger"
	"github.com/edfixyz/mosaic/internal/order"
	"github.com/edfixyz/mosaic/internal/registry"
	"github.com/edfixyz/mosaic/internal/session"
	"github.com/edfixyz/mosaic/internal/store"
)

// ErrorCode is a stable machine-readable error discriminator.
type ErrorCode string

const (
	ErrorCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrorCodeInvalidArgument       ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeDuplicateOrder        ErrorCode = "DUPLICATE_ORDER"
	ErrorCodeStageConflict         ErrorCode = "STAGE_CONFLICT"
	ErrorCodeSessionCreationFailed ErrorCode = "SESSION_CREATION_FAILED"
	ErrorCodeSettlementFailed      ErrorCode = "SETTLEMENT_FAILED"
	ErrorCodeRoutingFailed         ErrorCode = "ROUTING_FAILED"
	ErrorCodeCorruptedBook         ErrorCode = "CORRUPTED_BOOK"
	ErrorCodeInternalError         ErrorCode = "INTERNAL_ERROR"
)

// MapErrorToHTTP maps a domain error to an HTTP status and uniform body.
// Every typed error of the core surfaces with its own stable code.
func MapErrorToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusOK, ErrorResponse{}
	}

	var (
		accountValidation  *account.ValidationError
		orderValidation    *order.ValidationError
		registryValidation *registry.ValidationError
		duplicate          *store.DuplicateOrderError
		regression         *store.StageRegressionError
		creation           *session.CreationError
		settlement         *order.SettlementError
		routing            *order.RoutingError
		corrupted          *book.CorruptedBookError
	)

	switch {
	case errors.As(err, &accountValidation),
		errors.As(err, &orderValidation),
		errors.As(err, &registryValidation):
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInvalidArgument),
			Message: err.Error(),
		}

	case errors.As(err, &duplicate):
		return http.StatusConflict, ErrorResponse{
			Code:    string(ErrorCodeDuplicateOrder),
			Message: err.Error(),
		}

	case errors.As(err, &regression):
		return http.StatusConflict, ErrorResponse{
			Code:    string(ErrorCodeStageConflict),
			Message: err.Error(),
		}

	case errors.Is(err, store.ErrNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound, ErrorResponse{
			Code:    string(ErrorCodeNotFound),
			Message: err.Error(),
		}

	case errors.As(err, &creation):
		return http.StatusServiceUnavailable, ErrorResponse{
			Code:    string(ErrorCodeSessionCreationFailed),
			Message: err.Error(),
		}

	case errors.As(err, &settlement):
		return http.StatusBadGateway, ErrorResponse{
			Code:    string(ErrorCodeSettlementFailed),
			Message: err.Error(),
		}

	case errors.As(err, &routing):
		return http.StatusBadGateway, ErrorResponse{
			Code:    string(ErrorCodeRoutingFailed),
			Message: err.Error(),
		}

	case errors.As(err, &corrupted):
		return http.StatusInternalServerError, ErrorResponse{
			Code:    string(ErrorCodeCorruptedBook),
			Message: err.Error(),
		}

	default:
		return http.StatusInternalServerError, ErrorResponse{
			Code:    string(ErrorCodeInternalError),
			Message: err.Error(),
		}
	}
}
