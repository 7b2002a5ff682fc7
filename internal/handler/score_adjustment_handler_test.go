package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

type scoreAdjustmentStub struct {
	analyst string
	saved   dto.SaveScoreAdjustmentRequest
	deleted string
}

func (s *scoreAdjustmentStub) List(ctx context.Context, groupID, analystID string) ([]models.VirtualScoreAdjustment, error) {
	s.analyst = analystID
	return []models.VirtualScoreAdjustment{}, nil
}

func (s *scoreAdjustmentStub) Save(ctx context.Context, groupID string, req dto.SaveScoreAdjustmentRequest, actor models.Actor) (*models.VirtualScoreAdjustment, error) {
	s.saved = req
	if req.Penalty > 500 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "overlapping adjustment")
	}
	id := req.ID
	if id == "" {
		id = "adj-new"
	}
	return &models.VirtualScoreAdjustment{ID: id, Penalty: req.Penalty}, nil
}

func (s *scoreAdjustmentStub) Delete(ctx context.Context, groupID, id string, actor models.Actor) error {
	s.deleted = id
	return nil
}

func TestScoreAdjustmentSaveStatus(t *testing.T) {
	svc := &scoreAdjustmentStub{}
	h := &ScoreAdjustmentHandler{service: svc}
	base := `"analystId":"a1","startDate":"2024-06-10","endDate":"2024-06-12","reason":"FÉRIAS"`

	c, w := newContext(t, http.MethodPost, "/groups/grp-1/score-adjustments", jsonBody(`{"penalty":50,`+base+`}`))
	h.Save(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newContext(t, http.MethodPost, "/groups/grp-1/score-adjustments", jsonBody(`{"id":"adj-1","penalty":60,`+base+`}`))
	h.Save(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 60, svc.saved.Penalty)

	c, w = newContext(t, http.MethodPost, "/groups/grp-1/score-adjustments", jsonBody(`{"penalty":900,`+base+`}`))
	h.Save(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScoreAdjustmentListAndDelete(t *testing.T) {
	svc := &scoreAdjustmentStub{}
	h := &ScoreAdjustmentHandler{service: svc}

	c, w := newContext(t, http.MethodGet, "/groups/grp-1/score-adjustments?analystId=a1", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", svc.analyst)

	c, _ = newContext(t, http.MethodDelete, "/groups/grp-1/score-adjustments/adj-1", nil, ginParam("id", "adj-1"))
	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "adj-1", svc.deleted)
}
