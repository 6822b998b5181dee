package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milkmix/farm-backend/internal/api/metrics"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

// MemberHandler serves farm membership endpoints.
type MemberHandler struct {
	members ports.MemberService
}

func NewMemberHandler(members ports.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

// Create adds a new farm user to the caller's farm.
//
// @Summary      Add a farm member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addMemberRequest  true  "Member credentials and profile"
// @Success      201   {object}  memberEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /members/create [post]
func (h *MemberHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req addMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.members.AddMember(c.Request().Context(), actor, ports.AddMemberInput{
		FarmID:         req.Farm,
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		PhoneNumber:    req.PhoneNumber,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return err
	}
	metrics.MembersCreatedTotal.Inc()

	return c.JSON(http.StatusCreated, memberEnvelope{
		Message: "Member added to farm successfully",
		Data:    toMemberResponse(view),
	})
}

// ListByFarm lists the active members of a farm.
//
// @Summary      List farm members
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        farm_id  path      string  true  "Farm account ID"
// @Success      200      {object}  memberListEnvelope
// @Failure      401      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /members/farm/{farm_id} [get]
func (h *MemberHandler) ListByFarm(c echo.Context) error {
	farmID := c.Param("farm_id")

	views, err := h.members.ListMembers(c.Request().Context(), farmID)
	if err != nil {
		return err
	}

	farmEmail := farmID
	if len(views) > 0 && views[0].Farm.Account != nil {
		farmEmail = views[0].Farm.Account.Email
	}
	return c.JSON(http.StatusOK, memberListEnvelope{
		Message: "Members of farm " + farmEmail,
		Data:    toMemberResponses(views),
	})
}

// Self returns the caller's own membership.
//
// @Summary      Get own membership
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  memberResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /members/profile [get]
func (h *MemberHandler) Self(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	view, err := h.members.GetSelfMembership(c.Request().Context(), actor.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toMemberResponse(view))
}

// Deactivate switches a membership off.
//
// @Summary      Deactivate a farm member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        member_id  path      string  true  "Membership ID"
// @Success      200        {object}  messageResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /members/{member_id}/deactivate [post]
func (h *MemberHandler) Deactivate(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.members.DeactivateMember(c.Request().Context(), actor, c.Param("member_id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Member deactivated successfully"})
}
