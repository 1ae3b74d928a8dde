package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// claimsKey is the echo context key holding the request's Claims.
const claimsKey = "session_claims"

// RequireRole creates an Echo middleware that decodes the bearer token and
// stores its Claims in the Echo context for downstream handlers.
//
// Returns 401 Unauthorized when the Authorization header is missing, the
// token cannot be decoded or it has expired. Returns 403 Forbidden when roles
// is non-empty and the token's role is not among them.
//
// Example usage:
//
//	e := echo.New()
//	g := e.Group("/api/v1", session.RequireRole())
//	g.GET("/inventario", handler, session.RequireRole("ADMINISTRADOR"))
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := bearer(header)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}

			claims, err := Decode(token)
			if err != nil {
				return unauthorized(c, "invalid bearer token")
			}
			if claims.Expired(time.Now()) {
				return unauthorized(c, "session expired")
			}

			if len(roles) > 0 && !claims.HasRole(roles...) {
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"error": map[string]interface{}{
						"message": "role not allowed",
						"data": map[string]interface{}{
							"rol": claims.Role,
						},
					},
				})
			}

			c.Set(claimsKey, claims)
			SetToken(c, token)
			return next(c)
		}
	}
}

// FromEcho returns the Claims stored by RequireRole.
func FromEcho(c echo.Context) (Claims, bool) {
	claims, ok := c.Get(claimsKey).(Claims)
	return claims, ok
}

const tokenKey = "session_token"

// SetToken stores the raw token so handlers can forward it upstream.
func SetToken(c echo.Context, token string) {
	c.Set(tokenKey, token)
}

// TokenFromEcho returns the raw token stored by RequireRole.
func TokenFromEcho(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"error": map[string]interface{}{
			"message": "authentication failed: " + msg,
		},
	})
}
