// Package api is the tool RPC surface over the orchestration core: one
// POST endpoint per operation under /api/v1, bearer-authenticated, plus the
// unauthenticated desk ingestion and version endpoints.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/edfixyz/mosaic/internal/account"
	"github.com/edfixyz/mosaic/internal/registry"
	"github.com/edfixyz/mosaic/internal/serve"
	"github.com/edfixyz/mosaic/internal/store"
)

// Handler exposes the operation set over HTTP.
type Handler struct {
	core *serve.Serve
	log  *logrus.Entry
}

// NewHandler builds the API handler.
func NewHandler(core *serve.Serve, log *logrus.Entry) *Handler {
	return &Handler{core: core, log: log}
}

func (h *Handler) fail(c echo.Context, err error) error {
	status, body := MapErrorToHTTP(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.JSON(status, body)
}

// ListAccounts handles POST /api/v1/list_accounts.
func (h *Handler) ListAccounts(c echo.Context) error {
	var req NetworkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	accounts, err := h.core.ListAccounts(c.Request().Context(), callerIdentity(c), req.Network)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, accounts)
}

// CreateAccountOrder handles POST /api/v1/create_account_order.
func (h *Handler) CreateAccountOrder(c echo.Context) error {
	var req account.Order
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	result, err := h.core.CreateAccountOrder(c.Request().Context(), callerIdentity(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// CreateOrder handles POST /api/v1/create_order.
func (h *Handler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	row, err := h.core.CreateOrder(c.Request().Context(), callerIdentity(c), req.Network, req.AccountID, req.Order)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, orderResponse(row))
}

// ListOrders handles POST /api/v1/list_orders.
func (h *Handler) ListOrders(c echo.Context) error {
	rows, err := h.core.ListOrders(c.Request().Context(), callerIdentity(c))
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]OrderResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, orderResponse(row))
	}
	return c.JSON(http.StatusOK, out)
}

// GetRoleSettings handles POST /api/v1/get_role_settings.
func (h *Handler) GetRoleSettings(c echo.Context) error {
	roles, err := h.core.GetRoleSettings(c.Request().Context(), callerIdentity(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, roles)
}

// UpdateRoleSettings handles POST /api/v1/update_role_settings.
func (h *Handler) UpdateRoleSettings(c echo.Context) error {
	var req store.RoleSettings
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.core.UpdateRoleSettings(c.Request().Context(), callerIdentity(c), req); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// GetDeskInfo handles POST /api/v1/get_desk_info.
func (h *Handler) GetDeskInfo(c echo.Context) error {
	var req DeskInfoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	info, err := h.core.GetDeskInfo(c.Request().Context(), callerIdentity(c), req.Network, req.DeskAccount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// ListAssets handles POST /api/v1/list_assets.
func (h *Handler) ListAssets(c echo.Context) error {
	assets, err := h.core.ListAssets(c.Request().Context(), callerIdentity(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, assets)
}

// RegisterAsset handles POST /api/v1/register_asset.
func (h *Handler) RegisterAsset(c echo.Context) error {
	var req registry.Input
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	asset, err := h.core.RegisterAsset(c.Request().Context(), callerIdentity(c), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, asset)
}

// ClientSync handles POST /api/v1/client_sync.
func (h *Handler) ClientSync(c echo.Context) error {
	var req NetworkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	summary, err := h.core.ClientSync(c.Request().Context(), callerIdentity(c), req.Network)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// ConsumeNote handles POST /api/v1/consume_note.
func (h *Handler) ConsumeNote(c echo.Context) error {
	var req ConsumeNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	txID, err := h.core.ConsumeNote(c.Request().Context(), callerIdentity(c), req.Network, req.AccountID, req.NoteID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ConsumeNoteResponse{TransactionID: txID})
}

// GetAccountStatus handles POST /api/v1/get_account_status.
func (h *Handler) GetAccountStatus(c echo.Context) error {
	var req AccountStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	status, err := h.core.GetAccountStatus(c.Request().Context(), callerIdentity(c), req.Network, req.AccountID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// Flush handles POST /api/v1/flush.
func (h *Handler) Flush(c echo.Context) error {
	return c.JSON(http.StatusOK, FlushResponse{Flushed: h.core.Flush()})
}

// Version handles GET and POST /api/v1/version.
func (h *Handler) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, VersionResponse{Version: h.core.Version()})
}

// DeskPushNote handles POST /desk/:desk/note, the desk ingestion endpoint.
// Failures return a plain text body so the routing side can surface it
// verbatim.
func (h *Handler) DeskPushNote(c echo.Context) error {
	var req DeskPushNoteRequest
	if err := c.Bind(&req); err != nil || len(req.Note) == 0 {
		return c.String(http.StatusBadRequest, "body must be a JSON object with a note field")
	}
	desk := c.Param("desk")
	if desk == "" {
		desk = req.DeskAccount
	}
	if desk == "" {
		return c.String(http.StatusBadRequest, "desk account is required")
	}
	noteID, err := h.core.DeskPushNote(c.Request().Context(), desk, req.Note)
	if err != nil {
		status, body := MapErrorToHTTP(err)
		return c.String(status, body.Message)
	}
	return c.JSON(http.StatusOK, DeskPushNoteResponse{NoteID: noteID})
}
