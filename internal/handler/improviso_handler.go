package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/service"
	"github.com/noah-isme/certisched-api/pkg/response"
)

type improvisoResolver interface {
	FindImpacted(ctx context.Context, groupID string, req dto.ImprovisoRequest) ([]models.CertificationSchedule, error)
	CancelImpacted(ctx context.Context, groupID string, req dto.ImprovisoRequest, actor models.Actor) (int, error)
	DeclareImproviso(ctx context.Context, groupID string, req dto.ImprovisoRequest, actor models.Actor) (*dto.ImprovisoResponse, error)
}

// ImprovisoHandler handles last-minute analyst unavailability.
type ImprovisoHandler struct {
	service improvisoResolver
}

// NewImprovisoHandler constructs the handler.
func NewImprovisoHandler(svc *service.ImprovisoService) *ImprovisoHandler {
	return &ImprovisoHandler{service: svc}
}

// Impacted godoc
// @Summary Preview the confirmed bookings an improviso would cancel
// @Tags Improviso
// @Produce json
// @Param groupId path string true "Group ID"
// @Param analystId query string true "Analyst ID"
// @Param date query string true "YYYY-MM-DD"
// @Param shift query string true "MORNING, AFTERNOON or FULL_DAY"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/improviso/impacted [get]
func (h *ImprovisoHandler) Impacted(c *gin.Context) {
	var req dto.ImprovisoRequest
	if !bindQuery(c, &req, "improviso") {
		return
	}
	items, err := h.service.FindImpacted(c.Request.Context(), c.Param("groupId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// Cancel godoc
// @Summary Cancel the bookings hit by an improviso
// @Tags Improviso
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.ImprovisoRequest true "Improviso slot"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/improviso/cancel [post]
func (h *ImprovisoHandler) Cancel(c *gin.Context) {
	var req dto.ImprovisoRequest
	if !bindJSON(c, &req, "improviso") {
		return
	}
	cancelled, err := h.service.CancelImpacted(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ImprovisoResponse{Cancelled: cancelled})
}

// Declare godoc
// @Summary Record an improviso block and cancel the bookings it hits
// @Tags Improviso
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.ImprovisoRequest true "Improviso slot"
// @Success 201 {object} response.Envelope
// @Router /groups/{groupId}/improviso [post]
func (h *ImprovisoHandler) Declare(c *gin.Context) {
	var req dto.ImprovisoRequest
	if !bindJSON(c, &req, "improviso") {
		return
	}
	result, err := h.service.DeclareImproviso(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
