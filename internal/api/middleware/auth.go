package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/milkmix/farm-backend/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextAccountID = "account_id"
	ContextRole      = "role"
)

// Auth validates the bearer access token and injects its claims into context.
func Auth(tokens ports.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.ParseAccess(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Given token not valid for any token type")
			}

			c.Set(ContextAccountID, claims.AccountID)
			c.Set(ContextRole, claims.Role)

			return next(c)
		}
	}
}
