package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/service"
	"github.com/noah-isme/certisched-api/pkg/response"
)

type territoryService interface {
	ListCities(ctx context.Context, groupID string) ([]models.CityGroup, error)
	ResolveCity(ctx context.Context, groupID, city string) (*models.CityConfig, error)
	UpsertCity(ctx context.Context, groupID string, req dto.UpsertCityRequest, actor models.Actor) (*models.CityGroup, error)
	AddCityResponsibility(ctx context.Context, groupID string, req dto.CityResponsibilityRequest, actor models.Actor) (*models.CityGroup, error)
	RemoveCityResponsibility(ctx context.Context, groupID string, req dto.CityResponsibilityRequest, actor models.Actor) (*models.CityGroup, error)
}

// TerritoryHandler manages city placement rules.
type TerritoryHandler struct {
	service territoryService
}

// NewTerritoryHandler constructs the handler.
func NewTerritoryHandler(svc *service.TerritoryService) *TerritoryHandler {
	return &TerritoryHandler{service: svc}
}

// List godoc
// @Summary List city rules
// @Tags Territories
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/territories [get]
func (h *TerritoryHandler) List(c *gin.Context) {
	items, err := h.service.ListCities(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	listed(c, items, len(items))
}

// Resolve godoc
// @Summary Resolve the placement rule applied to a city
// @Tags Territories
// @Produce json
// @Param groupId path string true "Group ID"
// @Param city query string true "City name"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/territories/resolve [get]
func (h *TerritoryHandler) Resolve(c *gin.Context) {
	cfg, err := h.service.ResolveCity(c.Request.Context(), c.Param("groupId"), c.Query("city"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cfg)
}

// Upsert godoc
// @Summary Create or replace a city rule
// @Tags Territories
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.UpsertCityRequest true "City rule"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/territories [put]
func (h *TerritoryHandler) Upsert(c *gin.Context) {
	var req dto.UpsertCityRequest
	if !bindJSON(c, &req, "city") {
		return
	}
	city, err := h.service.UpsertCity(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, city)
}

// AddResponsible godoc
// @Summary Make an analyst profile responsible for a city
// @Tags Territories
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.CityResponsibilityRequest true "City and profile"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/territories/responsibles [post]
func (h *TerritoryHandler) AddResponsible(c *gin.Context) {
	var req dto.CityResponsibilityRequest
	if !bindJSON(c, &req, "city responsibility") {
		return
	}
	city, err := h.service.AddCityResponsibility(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, city)
}

// RemoveResponsible godoc
// @Summary Remove an analyst profile from a city
// @Tags Territories
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param payload body dto.CityResponsibilityRequest true "City and profile"
// @Success 200 {object} response.Envelope
// @Router /groups/{groupId}/territories/responsibles [delete]
func (h *TerritoryHandler) RemoveResponsible(c *gin.Context) {
	var req dto.CityResponsibilityRequest
	if !bindJSON(c, &req, "city responsibility") {
		return
	}
	city, err := h.service.RemoveCityResponsibility(c.Request.Context(), c.Param("groupId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, city)
}
