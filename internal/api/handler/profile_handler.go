package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milkmix/farm-backend/internal/core/ports"
)

// ProfileHandler serves the caller's profile and the admin account listing.
type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetProfile returns the caller's profile, creating a default one if missing.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Router       /profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	ap, err := h.profiles.Get(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toProfileResponse(ap.Profile))
}

// UpdateProfile applies a partial update to the caller's profile.
//
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileUpdateRequest  true  "Fields to change"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /profile [put]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req profileUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.profiles.Update(c.Request().Context(), actor.ID, toProfileUpdate(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// ListUsers returns every account with its profile. Admin only.
//
// @Summary      List accounts
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   accountResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /users [get]
func (h *ProfileHandler) ListUsers(c echo.Context) error {
	accounts, err := h.profiles.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]*accountResponse, 0, len(accounts))
	for _, ap := range accounts {
		out = append(out, toAccountResponse(ap))
	}
	return c.JSON(http.StatusOK, out)
}
