package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edfixyz/mosaic/internal/serve"
)

const identityKey = "mosaic.identity"

// CredentialResolver maps a bearer token to the caller's identity. Token
// issuance and validation live outside this server; the resolver only has
// to produce a stable user id and owner secret per token.
type CredentialResolver func(token string) (serve.Identity, error)

// DefaultResolver derives both the user id and the owner secret from the
// token itself. It keeps single-binary deployments working without an
// external credential service.
func DefaultResolver(token string) (serve.Identity, error) {
	sum := sha256.Sum256([]byte(token))
	id := serve.Identity{UserID: hex.EncodeToString(sum[:8])}
	id.Secret = sum
	return id, nil
}

// bearerAuth extracts and resolves the Authorization header.
func bearerAuth(resolve CredentialResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			id, err := resolve(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid bearer token")
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

func callerIdentity(c echo.Context) serve.Identity {
	id, _ := c.Get(identityKey).(serve.Identity)
	return id
}
