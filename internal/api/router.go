package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the operation handlers onto an echo instance. Every
// operation is a POST under /api/v1 and requires a bearer token, except
// version (also reachable via GET) and the desk ingestion endpoint.
func NewRouter(h *Handler, resolve CredentialResolver, log *logrus.Entry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	e.GET("/api/v1/version", h.Version)
	e.POST("/api/v1/version", h.Version)
	e.POST("/api/v1/desk_push_note", h.DeskPushNote)
	e.POST("/desk/:desk/note", h.DeskPushNote)

	v1 := e.Group("/api/v1", bearerAuth(resolve))
	v1.POST("/list_accounts", h.ListAccounts)
	v1.POST("/create_account_order", h.CreateAccountOrder)
	v1.POST("/create_order", h.CreateOrder)
	v1.POST("/list_orders", h.ListOrders)
	v1.POST("/get_role_settings", h.GetRoleSettings)
	v1.POST("/update_role_settings", h.UpdateRoleSettings)
	v1.POST("/get_desk_info", h.GetDeskInfo)
	v1.POST("/list_assets", h.ListAssets)
	v1.POST("/register_asset", h.RegisterAsset)
	v1.POST("/client_sync", h.ClientSync)
	v1.POST("/consume_note", h.ConsumeNote)
	v1.POST("/get_account_status", h.GetAccountStatus)
	v1.POST("/flush", h.Flush)

	return e
}

func requestLogger(log *logrus.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			log.WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
				"status": c.Response().Status,
			}).Debug("request handled")
			return err
		}
	}
}
