package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/service"
	"github.com/noah-isme/certisched-api/pkg/response"
)

type scoreAdjustmentService interface {
	List(ctx context.Context, groupID, analystID string) ([]models.VirtualScoreAdjustment, error)
	Save(ctx context.Context, groupID string, req dto.SaveScoreAdjustmentRequest, actor models.Actor) (*models.VirtualScoreAdjustment, error)
	Delete(ctx context.Context, groupID, id string, actor models.Actor) error
}

// ScoreAdjustmentHandler manages temporary virtual score penalties.
type ScoreAdjustmentHandler struct {
	service scoreAdjustmentService
}

// NewScoreAdjustmentHandler constructs the handler.
func NewScoreAdjustmentHandler(svc *service.ScoreAdjustmentService) *ScoreAdjustmentHandler {
	return &ScoreAdjustmentHandler{service: svc}
}

// List godoc
// @Summary List score adjustments
// @Tags Score Adjustments
// @Produce json
// @Param groupId path string true "Group ID"
// @Param analystId query string false "Analyst ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/score-adjustments [get]
func (h *ScoreAdjustmentHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("groupId"), c.Query("analystId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// Save godoc
// @Summary Create or replace a score adjustment
// @Tags Score Adjustments
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.SaveScoreAdjustmentRequest true "Adjustment"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/score-adjustments [post]
func (h *ScoreAdjustmentHandler) Save(c *gin.Context) {
	var req dto.SaveScoreAdjustmentRequest
	if !bindJSON(c, &req, "score adjustment") {
		return
	}
	adj, err := h.service.Save(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if req.ID == "" {
		response.Created(c, adj)
		return
	}
	response.OK(c, adj)
}

// Delete godoc
// @Summary Delete a score adjustment
// @Tags Score Adjustments
// @Param groupId path string true "Group ID"
// @Param id path string true "Adjustment ID"
// @Success 204
// @Router /groups/{groupId}/score-adjustments/{id} [delete]
func (h *ScoreAdjustmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("groupId"), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
