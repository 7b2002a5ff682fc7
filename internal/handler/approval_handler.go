package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/service"
	"github.com/noah-isme/certisched-api/pkg/response"
)

type approvalSweeper interface {
	Sweep(ctx context.Context, groupID string) (*service.SweepResult, error)
}

// ApprovalHandler triggers the D+1 auto-approval sweep on demand.
type ApprovalHandler struct {
	sweeper approvalSweeper
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(sweeper *service.ApprovalSweeper) *ApprovalHandler {
	return &ApprovalHandler{sweeper: sweeper}
}

// Sweep godoc
// @Summary Approve technicians whose certification date is at least one day old
// @Tags Approvals
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/approvals/sweep [post]
func (h *ApprovalHandler) Sweep(c *gin.Context) {
	result, err := h.sweeper.Sweep(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SweepResponse{Promoted: result.Promoted})
}
