package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milkmix/farm-backend/internal/api/metrics"
	"github.com/milkmix/farm-backend/internal/core/domain"
	"github.com/milkmix/farm-backend/internal/core/ports"
)

// ConsultantHandler serves the consultant invitation workflow.
type ConsultantHandler struct {
	consultants ports.ConsultantService
}

func NewConsultantHandler(consultants ports.ConsultantService) *ConsultantHandler {
	return &ConsultantHandler{consultants: consultants}
}

// SearchFarms finds farms by profile name.
//
// @Summary      Search farms by name
// @Tags         consultants
// @Produce      json
// @Security     BearerAuth
// @Param        name  query     string  false  "Part of the farm name"
// @Success      200   {object}  farmSearchEnvelope
// @Failure      401   {object}  errorResponse
// @Router       /consultants/search/farm [get]
func (h *ConsultantHandler) SearchFarms(c echo.Context) error {
	farms, err := h.consultants.SearchFarms(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, farmSearchEnvelope{
		Message: "Farms retrieved successfully",
		Data:    toFarmSearchResponses(farms),
	})
}

// SendRequest files a consultant request with a farm.
//
// @Summary      Send a consultant request
// @Tags         consultants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      consultantRequestBody  true  "Farm and consultant ids"
// @Success      201   {object}  consultantRequestEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /consultants/request [post]
func (h *ConsultantHandler) SendRequest(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req consultantRequestBody
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.consultants.SendRequest(c.Request().Context(), actor, req.Farm, req.Consultant)
	if err != nil {
		return err
	}
	metrics.ConsultantRequestsTotal.WithLabelValues("sent").Inc()

	return c.JSON(http.StatusCreated, consultantRequestEnvelope{
		Message: "Consultant request sent successfully",
		Data:    toConsultantRequestResponse(view),
	})
}

// ManageRequest accepts or declines a pending request.
//
// @Summary      Accept or decline a consultant request
// @Tags         consultants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Request ID"
// @Param        body  body      manageRequestBody  true  "accept or decline"
// @Success      200   {object}  consultantRequestEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /consultants/request/{id}/manage [post]
func (h *ConsultantHandler) ManageRequest(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req manageRequestBody
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	action := domain.RequestAction(req.Action)
	view, err := h.consultants.ManageRequest(c.Request().Context(), actor, c.Param("id"), action)
	if err != nil {
		return err
	}
	metrics.ConsultantRequestsTotal.WithLabelValues(req.Action).Inc()

	return c.JSON(http.StatusOK, consultantRequestEnvelope{
		Message: "Consultant request " + string(view.Request.Status) + " successfully",
		Data:    toConsultantRequestResponse(view),
	})
}

// PendingRequests lists requests waiting on the calling farm.
//
// @Summary      List pending consultant requests
// @Tags         consultants
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  consultantRequestListEnvelope
// @Failure      403  {object}  errorResponse
// @Router       /consultants/request-list [get]
func (h *ConsultantHandler) PendingRequests(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	views, err := h.consultants.PendingRequests(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, consultantRequestListEnvelope{
		Message: "Pending consultant requests retrieved successfully",
		Data:    toConsultantRequestResponses(views),
	})
}

// AcceptedFarms lists farms that accepted the calling consultant.
//
// @Summary      List accepted farms
// @Tags         consultants
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  consultantRequestListEnvelope
// @Failure      403  {object}  errorResponse
// @Router       /consultants/farm/list [get]
func (h *ConsultantHandler) AcceptedFarms(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	views, err := h.consultants.AcceptedFarms(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, consultantRequestListEnvelope{
		Message: "Accepted Farm List retrieved successfully",
		Data:    toConsultantRequestResponses(views),
	})
}

// FarmMembers lists a linked farm's members for a consultant.
//
// @Summary      List members of a linked farm
// @Tags         consultants
// @Produce      json
// @Security     BearerAuth
// @Param        farm_id  path      string  true  "Farm account ID"
// @Success      200      {object}  memberListEnvelope
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /consultants/farm/{farm_id}/member-list [get]
func (h *ConsultantHandler) FarmMembers(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	views, err := h.consultants.FarmMembers(c.Request().Context(), actor, c.Param("farm_id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, memberListEnvelope{
		Message: "Farm members retrieved successfully",
		Data:    toMemberResponses(views),
	})
}
