package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/service"
	"github.com/noah-isme/certisched-api/pkg/response"
)

type schedulingEngine interface {
	RunScheduling(ctx context.Context, groupID string, req dto.RunSchedulingRequest, actor models.Actor) (*service.RunResult, error)
	ComputeDemandMetrics(ctx context.Context, groupID, analystID string) (*models.AnalystDemandMetrics, error)
	ComputeAllDemandMetrics(ctx context.Context, groupID string) ([]models.AnalystDemandMetrics, error)
	CheckAvailability(ctx context.Context, groupID string, query dto.AvailabilityQuery) (*dto.AvailabilityResponse, error)
	ListSchedules(ctx context.Context, groupID string, query dto.ScheduleListQuery) ([]models.CertificationSchedule, error)
}

type manualScheduler interface {
	ValidateManual(ctx context.Context, groupID string, req dto.ManualScheduleRequest) (*service.ManualValidation, error)
	ExecuteManual(ctx context.Context, groupID string, req dto.ManualExecuteRequest, actor models.Actor) (*service.ManualResult, error)
}

// SchedulingHandler exposes the auto and manual scheduling endpoints.
type SchedulingHandler struct {
	engine schedulingEngine
	manual manualScheduler
}

// NewSchedulingHandler constructs the handler.
func NewSchedulingHandler(engine *service.SchedulingService, manual *service.ManualSchedulingService) *SchedulingHandler {
	return &SchedulingHandler{engine: engine, manual: manual}
}

// Run godoc
// @Summary Run the auto-scheduling engine for a group
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.RunSchedulingRequest false "Start date (defaults to today)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /groups/{groupId}/scheduling/run [post]
func (h *SchedulingHandler) Run(c *gin.Context) {
	var req dto.RunSchedulingRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req, "scheduling") {
			return
		}
	}
	result, err := h.engine.RunScheduling(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.RunSchedulingResponse{Scheduled: result.Scheduled, Backlog: result.Backlog, Reasons: result.Reasons})
}

// ValidateManual godoc
// @Summary List the rules a hand-picked slot breaks
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.ManualScheduleRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/scheduling/manual/validate [post]
func (h *SchedulingHandler) ValidateManual(c *gin.Context) {
	var req dto.ManualScheduleRequest
	if !bindJSON(c, &req, "manual scheduling") {
		return
	}
	result, err := h.manual.ValidateManual(c.Request.Context(), c.Param("groupId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ManualValidationResponse{
		CanSchedule: result.CanSchedule,
		BrokenRules: result.BrokenRules,
		Message:     result.Message,
	})
}

// ExecuteManual godoc
// @Summary Book a hand-picked slot, optionally forcing broken rules
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.ManualExecuteRequest true "Slot and override"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /groups/{groupId}/scheduling/manual [post]
func (h *SchedulingHandler) ExecuteManual(c *gin.Context) {
	var req dto.ManualExecuteRequest
	if !bindJSON(c, &req, "manual scheduling") {
		return
	}
	result, err := h.manual.ExecuteManual(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	body := dto.ManualExecuteResponse{
		Success:     result.Success,
		Message:     result.Message,
		BrokenRules: result.BrokenRules,
		Schedule:    result.Schedule,
	}
	if !result.Success {
		response.JSON(c, http.StatusUnprocessableEntity, body, nil)
		return
	}
	response.Created(c, body)
}

// Availability godoc
// @Summary Check one analyst slot
// @Tags Scheduling
// @Produce json
// @Param groupId path string true "Group ID"
// @Param analystId query string true "Analyst ID"
// @Param date query string true "YYYY-MM-DD"
// @Param shift query string true "MORNING, AFTERNOON or FULL_DAY"
// @Param type query string true "PRESENTIAL or VIRTUAL"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/availability [get]
func (h *SchedulingHandler) Availability(c *gin.Context) {
	var query dto.AvailabilityQuery
	if !bindQuery(c, &query, "availability") {
		return
	}
	result, err := h.engine.CheckAvailability(c.Request.Context(), c.Param("groupId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Schedules godoc
// @Summary List certification schedules
// @Tags Scheduling
// @Produce json
// @Param groupId path string true "Group ID"
// @Param status query string false "CONFIRMED, COMPLETED or CANCELLED"
// @Param analystId query string false "Analyst ID"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/schedules [get]
func (h *SchedulingHandler) Schedules(c *gin.Context) {
	var query dto.ScheduleListQuery
	if !bindQuery(c, &query, "schedule") {
		return
	}
	items, err := h.engine.ListSchedules(c.Request.Context(), c.Param("groupId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// DemandAll godoc
// @Summary Demand metrics of every active analyst
// @Tags Analysts
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/analysts/demand [get]
func (h *SchedulingHandler) DemandAll(c *gin.Context) {
	items, err := h.engine.ComputeAllDemandMetrics(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// Demand godoc
// @Summary Demand metrics of one analyst
// @Tags Analysts
// @Produce json
// @Param groupId path string true "Group ID"
// @Param analystId path string true "Analyst ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/analysts/{analystId}/demand [get]
func (h *SchedulingHandler) Demand(c *gin.Context) {
	metrics, err := h.engine.ComputeDemandMetrics(c.Request.Context(), c.Param("groupId"), c.Param("analystId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, metrics)
}
