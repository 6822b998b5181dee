package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/milkmix/farm-backend/internal/core/domain"
)

func TestRBAC(t *testing.T) {
	tests := []struct {
		name    string
		role    any
		allowed bool
	}{
		{name: "farm allowed", role: domain.RoleFarm, allowed: true},
		{name: "admin allowed", role: domain.RoleAdmin, allowed: true},
		{name: "user denied", role: domain.RoleUser},
		{name: "no claims", role: nil},
		{name: "plain string is not a role", role: "farm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tt.role != nil {
				c.Set(ContextRole, tt.role)
			}

			called := false
			err := RBAC(domain.RoleFarm, domain.RoleAdmin)(func(c echo.Context) error {
				called = true
				return nil
			})(c)

			if called != tt.allowed {
				t.Fatalf("called = %v, want %v", called, tt.allowed)
			}
			if !tt.allowed && !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}
