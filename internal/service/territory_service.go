package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
	"github.com/noah-isme/certisched-api/pkg/normalize"
)

const (
	screenTerritory   = "Territórios"
	opTerritoryUpsert = "territory.upsert"
	opTerritoryAssign = "territory.assign"
	opTerritoryRevoke = "territory.revoke"
)

// TerritoryService administers city placement rules.
type TerritoryService struct {
	ws        *groupWorkspace
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTerritoryService constructs a TerritoryService.
func NewTerritoryService(deps WorkspaceDeps, validate *validator.Validate) *TerritoryService {
	if validate == nil {
		validate = validator.New()
	}
	ws := newGroupWorkspace(deps)
	return &TerritoryService{ws: ws, validator: validate, logger: ws.logger}
}

// ListCities returns every configured city, inactive ones included, by name.
func (s *TerritoryService) ListCities(ctx context.Context, groupID string) ([]models.CityGroup, error) {
	out := make([]models.CityGroup, 0)
	err := s.ws.view(ctx, groupID, func(state *schedulingState) error {
		for _, c := range state.cities {
			out = append(out, *c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return normalize.Key(out[i].Name) < normalize.Key(out[j].Name) })
	return out, nil
}

// ResolveCity returns the placement rule the engine would apply to city.
func (s *TerritoryService) ResolveCity(ctx context.Context, groupID, city string) (*models.CityConfig, error) {
	if normalize.Key(city) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "city is required")
	}
	var out models.CityConfig
	err := s.ws.view(ctx, groupID, func(state *schedulingState) error {
		out, _ = state.territory.ResolveCityConfig(city)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertCity creates or replaces a city rule matched by normalized name.
func (s *TerritoryService) UpsertCity(ctx context.Context, groupID string, req dto.UpsertCityRequest, actor models.Actor) (*models.CityGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid city payload")
	}
	var out models.CityGroup
	err := s.ws.mutate(ctx, groupID, opTerritoryUpsert, func(state *schedulingState) ([]models.AuditTicket, error) {
		now := s.ws.now().UTC()
		city, exists := state.cityByName(req.Name)
		var before interface{}
		if exists {
			before = *city
		} else {
			city = newCity(groupID, req.Name, models.ExpertiseType(req.Type), now)
		}
		city.Type = models.ExpertiseType(req.Type)
		if req.UF != "" {
			city.UF = normalize.Upper(req.UF)
		}
		city.ResponsibleAnalystIDs = pq.StringArray(uniqueIDs(req.ResponsibleAnalystIDs))
		if req.Active != nil {
			city.Active = *req.Active
		}
		city.UpdatedAt = now
		state.upsertCity(city)
		out = *city
		return []models.AuditTicket{territoryTicket(groupID, out, "Cidade configurada como "+string(out.Type), before, actor)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddCityResponsibility authorizes a profile for presential work in the city. A
// missing city is created as PRESENTIAL.
func (s *TerritoryService) AddCityResponsibility(ctx context.Context, groupID string, req dto.CityResponsibilityRequest, actor models.Actor) (*models.CityGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid responsibility payload")
	}
	var out models.CityGroup
	err := s.ws.mutate(ctx, groupID, opTerritoryAssign, func(state *schedulingState) ([]models.AuditTicket, error) {
		now := s.ws.now().UTC()
		city, exists := state.cityByName(req.City)
		var before interface{}
		if exists {
			before = *city
			if city.HasResponsible(req.ProfileID) {
				out = *city
				return nil, nil
			}
		} else {
			city = newCity(groupID, req.City, models.ExpertisePresential, now)
		}
		if req.UF != "" {
			city.UF = normalize.Upper(req.UF)
		}
		city.ResponsibleAnalystIDs = append(city.ResponsibleAnalystIDs, req.ProfileID)
		city.UpdatedAt = now
		state.upsertCity(city)
		out = *city
		return []models.AuditTicket{territoryTicket(groupID, out, "Responsável adicionado: "+req.ProfileID, before, actor)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCityResponsibility revokes a profile from the city.
func (s *TerritoryService) RemoveCityResponsibility(ctx context.Context, groupID string, req dto.CityResponsibilityRequest, actor models.Actor) (*models.CityGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid responsibility payload")
	}
	var out models.CityGroup
	err := s.ws.mutate(ctx, groupID, opTerritoryRevoke, func(state *schedulingState) ([]models.AuditTicket, error) {
		city, exists := state.cityByName(req.City)
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "city not found")
		}
		before := *city
		if !city.HasResponsible(req.ProfileID) {
			out = *city
			return nil, nil
		}
		kept := make(pq.StringArray, 0, len(city.ResponsibleAnalystIDs))
		for _, id := range city.ResponsibleAnalystIDs {
			if id != req.ProfileID {
				kept = append(kept, id)
			}
		}
		city.ResponsibleAnalystIDs = kept
		city.UpdatedAt = s.ws.now().UTC()
		state.upsertCity(city)
		out = *city
		return []models.AuditTicket{territoryTicket(groupID, out, "Responsável removido: "+req.ProfileID, before, actor)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func newCity(groupID, name string, kind models.ExpertiseType, now time.Time) *models.CityGroup {
	return &models.CityGroup{
		ID:                    uuid.NewString(),
		GroupID:               groupID,
		Name:                  normalize.Upper(name),
		Type:                  kind,
		ResponsibleAnalystIDs: pq.StringArray{},
		Active:                true,
		CreatedAt:             now,
	}
}

func territoryTicket(groupID string, city models.CityGroup, reason string, before interface{}, actor models.Actor) models.AuditTicket {
	ticket := newTicket(groupID, models.AuditTerritoryChange, actor)
	ticket.TargetType = models.AuditTargetCity
	ticket.TargetValue = city.Name
	ticket.Reason = reason
	if ticket.Screen == "" {
		ticket.Screen = screenTerritory
	}
	ticket.Before = auditJSON(before)
	ticket.After = auditJSON(city)
	return ticket
}
