package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

func TestSaveScoreAdjustmentLifecycle(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{Users: []models.User{analyst("a1", "")}})
	svc := NewScoreAdjustmentService(h.deps, nil)
	ctx := context.Background()

	created, err := svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{
		AnalystID: "a1", Penalty: 50, StartDate: "2024-06-10", EndDate: "2024-06-14", Reason: " Licença parcial ",
	}, testActor)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, "Licença parcial", created.Reason)
	assert.Equal(t, "GESTORA", created.CreatedBy)

	_, err = svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{
		AnalystID: "a1", Penalty: 10, StartDate: "2024-06-14", EndDate: "2024-06-20", Reason: "sobreposto",
	}, testActor)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	updated, err := svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{
		ID: created.ID, AnalystID: "a1", Penalty: 80, StartDate: "2024-06-10", EndDate: "2024-06-20", Reason: "estendido",
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 80, updated.Penalty)

	list, err := svc.List(ctx, testGroup, "a1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-06-20", models.DateKey(list[0].EndDate))

	require.NoError(t, svc.Delete(ctx, testGroup, created.ID, testActor))
	list, err = svc.List(ctx, testGroup, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	actions := make([]string, 0)
	for _, ticket := range h.audit.all() {
		actions = append(actions, ticket.Action)
	}
	assert.Equal(t, []string{models.AuditScoreAdjustment, models.AuditScoreAdjustment, models.AuditScoreAdjustmentDrop}, actions)
}

func TestSaveScoreAdjustmentValidation(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{Users: []models.User{analyst("a1", "")}})
	svc := NewScoreAdjustmentService(h.deps, nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{AnalystID: "a1", Penalty: 5, StartDate: "2024-06-14", EndDate: "2024-06-10", Reason: "x"}, testActor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{AnalystID: "a1", Penalty: 0, StartDate: "2024-06-10", EndDate: "2024-06-10", Reason: "x"}, testActor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{AnalystID: "ghost", Penalty: 5, StartDate: "2024-06-10", EndDate: "2024-06-10", Reason: "x"}, testActor)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{ID: "missing", AnalystID: "a1", Penalty: 5, StartDate: "2024-06-10", EndDate: "2024-06-10", Reason: "x"}, testActor)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	assert.True(t, errors.Is(svc.Delete(ctx, testGroup, "missing", testActor), appErrors.ErrNotFound))
	assert.Empty(t, h.audit.all())
}

func TestInactiveAdjustmentsDoNotConflict(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{Users: []models.User{analyst("a1", "")}})
	svc := NewScoreAdjustmentService(h.deps, nil)
	ctx := context.Background()

	off := false
	_, err := svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{AnalystID: "a1", Penalty: 5, StartDate: "2024-06-10", EndDate: "2024-06-20", Reason: "pausado", Active: &off}, testActor)
	require.NoError(t, err)
	_, err = svc.Save(ctx, testGroup, dto.SaveScoreAdjustmentRequest{AnalystID: "a1", Penalty: 5, StartDate: "2024-06-12", EndDate: "2024-06-13", Reason: "ativo"}, testActor)
	require.NoError(t, err)
}
