package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milkmix/farm-backend/internal/api/middleware"
	"github.com/milkmix/farm-backend/internal/core/domain"
)

// ctxActor extracts the caller injected by the Auth middleware. A missing id
// or role means the route was mounted without Auth; reject with 401.
func ctxActor(c echo.Context) (domain.Actor, error) {
	id, _ := c.Get(middleware.ContextAccountID).(string)
	role, _ := c.Get(middleware.ContextRole).(domain.Role)
	if id == "" || !role.Valid() {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return domain.Actor{ID: id, Role: role}, nil
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
