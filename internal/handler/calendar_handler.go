package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/service"
	"github.com/noah-isme/certisched-api/pkg/response"
)

type calendarService interface {
	ListEvents(ctx context.Context, groupID string, query dto.EventListQuery) ([]models.AnalystEvent, error)
	AddEvent(ctx context.Context, groupID string, req dto.CreateEventRequest, actor models.Actor) (*models.AnalystEvent, error)
	AddEventRange(ctx context.Context, groupID string, req dto.CreateEventRangeRequest, actor models.Actor) (*dto.EventRangeResponse, error)
	RemoveEvents(ctx context.Context, groupID string, query dto.RemoveEventsQuery, actor models.Actor) (int, error)
}

// CalendarHandler manages analyst blocks.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// List godoc
// @Summary List analyst events
// @Tags Calendar
// @Produce json
// @Param groupId path string true "Group ID"
// @Param userId query string false "User ID"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/events [get]
func (h *CalendarHandler) List(c *gin.Context) {
	var query dto.EventListQuery
	if !bindQuery(c, &query, "event") {
		return
	}
	items, err := h.service.ListEvents(c.Request.Context(), c.Param("groupId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// Create godoc
// @Summary Block analysts on one date and shift
// @Tags Calendar
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.CreateEventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Router /groups/{groupId}/events [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if !bindJSON(c, &req, "event") {
		return
	}
	event, err := h.service.AddEvent(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// CreateRange godoc
// @Summary Block analysts for every business day of a window
// @Tags Calendar
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.CreateEventRangeRequest true "Event window"
// @Success 201 {object} response.Envelope
// @Router /groups/{groupId}/events/range [post]
func (h *CalendarHandler) CreateRange(c *gin.Context) {
	var req dto.CreateEventRangeRequest
	if !bindJSON(c, &req, "event range") {
		return
	}
	result, err := h.service.AddEventRange(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Remove godoc
// @Summary Clear one user's blocks on a date
// @Tags Calendar
// @Produce json
// @Param groupId path string true "Group ID"
// @Param userId query string true "User ID"
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/events [delete]
func (h *CalendarHandler) Remove(c *gin.Context) {
	var query dto.RemoveEventsQuery
	if !bindQuery(c, &query, "event") {
		return
	}
	removed, err := h.service.RemoveEvents(c.Request.Context(), c.Param("groupId"), query, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}
