package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

func TestUpsertCityMatchesByNormalizedName(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{Cities: []models.CityGroup{city("São Paulo", models.ExpertiseVirtual)}})
	svc := NewTerritoryService(h.deps, nil)

	inactive := false
	out, err := svc.UpsertCity(context.Background(), testGroup, dto.UpsertCityRequest{
		Name: "SAO PAULO", UF: "sp", Type: "PRESENTIAL", ResponsibleAnalystIDs: []string{"prof-a", "prof-a", "prof-b"}, Active: &inactive,
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "city-São Paulo", out.ID)
	assert.Equal(t, "SP", out.UF)
	assert.Equal(t, pq.StringArray{"prof-a", "prof-b"}, out.ResponsibleAnalystIDs)
	assert.False(t, out.Active)

	cities, err := svc.ListCities(context.Background(), testGroup)
	require.NoError(t, err)
	assert.Len(t, cities, 1)

	// Inactive cities drop out of the engine's view.
	cfg, err := svc.ResolveCity(context.Background(), testGroup, "são paulo")
	require.NoError(t, err)
	assert.False(t, cfg.Configured)

	tickets := h.audit.all()
	require.Len(t, tickets, 1)
	assert.Equal(t, models.AuditTerritoryChange, tickets[0].Action)
	assert.Equal(t, models.AuditTargetCity, tickets[0].TargetType)
	assert.Equal(t, "Territórios", tickets[0].Screen)
	assert.NotEmpty(t, tickets[0].Before)
}

func TestAddCityResponsibilityCreatesPresentialCity(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{})
	svc := NewTerritoryService(h.deps, nil)

	out, err := svc.AddCityResponsibility(context.Background(), testGroup, dto.CityResponsibilityRequest{City: "ribeirão preto", ProfileID: "prof-a", UF: "sp"}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "RIBEIRÃO PRETO", out.Name)
	assert.Equal(t, models.ExpertisePresential, out.Type)
	assert.Equal(t, pq.StringArray{"prof-a"}, out.ResponsibleAnalystIDs)

	// Adding the same profile again is a no-op.
	_, err = svc.AddCityResponsibility(context.Background(), testGroup, dto.CityResponsibilityRequest{City: "Ribeirao Preto", ProfileID: "prof-a"}, testActor)
	require.NoError(t, err)
	assert.Len(t, h.audit.all(), 1)
	assert.Equal(t, 1, h.notifier.count())

	cfg, err := svc.ResolveCity(context.Background(), testGroup, "RIBEIRAO PRETO")
	require.NoError(t, err)
	assert.True(t, cfg.RequiresPresential())
	assert.Equal(t, []string{"prof-a"}, cfg.AuthorizedProfileIDs)
}

func TestRemoveCityResponsibility(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{Cities: []models.CityGroup{city("Campinas", models.ExpertisePresential, "prof-a", "prof-b")}})
	svc := NewTerritoryService(h.deps, nil)

	out, err := svc.RemoveCityResponsibility(context.Background(), testGroup, dto.CityResponsibilityRequest{City: "campinas", ProfileID: "prof-a"}, testActor)
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"prof-b"}, out.ResponsibleAnalystIDs)

	_, err = svc.RemoveCityResponsibility(context.Background(), testGroup, dto.CityResponsibilityRequest{City: "Sorocaba", ProfileID: "prof-a"}, testActor)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.ResolveCity(context.Background(), testGroup, "   ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
