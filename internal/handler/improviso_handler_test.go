package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/internal/service"
)

type improvisoStub struct {
	impacted dto.ImprovisoRequest
	declared dto.ImprovisoRequest
}

func (s *improvisoStub) FindImpacted(ctx context.Context, groupID string, req dto.ImprovisoRequest) ([]models.CertificationSchedule, error) {
	s.impacted = req
	return []models.CertificationSchedule{{ID: "sch-1"}, {ID: "sch-2"}}, nil
}

func (s *improvisoStub) CancelImpacted(ctx context.Context, groupID string, req dto.ImprovisoRequest, actor models.Actor) (int, error) {
	return 2, nil
}

func (s *improvisoStub) DeclareImproviso(ctx context.Context, groupID string, req dto.ImprovisoRequest, actor models.Actor) (*dto.ImprovisoResponse, error) {
	s.declared = req
	return &dto.ImprovisoResponse{Cancelled: 1, EventID: "ev-9"}, nil
}

func TestImprovisoEndpoints(t *testing.T) {
	svc := &improvisoStub{}
	h := &ImprovisoHandler{service: svc}

	c, w := newContext(t, http.MethodGet, "/groups/grp-1/improviso/impacted?analystId=a1&date=2024-06-10&shift=FULL_DAY", nil)
	h.Impacted(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FULL_DAY", svc.impacted.Shift)
	env := decode(t, w, nil)
	assert.EqualValues(t, 2, env.Meta["total"])

	payload := `{"analystId":"a1","date":"2024-06-10","shift":"MORNING","title":"PANE NO CARRO"}`
	c, w = newContext(t, http.MethodPost, "/groups/grp-1/improviso/cancel", jsonBody(payload))
	h.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled dto.ImprovisoResponse
	decode(t, w, &cancelled)
	assert.Equal(t, 2, cancelled.Cancelled)

	c, w = newContext(t, http.MethodPost, "/groups/grp-1/improviso", jsonBody(payload))
	h.Declare(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "PANE NO CARRO", svc.declared.Title)
}

type sweeperStub struct{ group string }

func (s *sweeperStub) Sweep(ctx context.Context, groupID string) (*service.SweepResult, error) {
	s.group = groupID
	return &service.SweepResult{Promoted: 4}, nil
}

func TestApprovalSweep(t *testing.T) {
	stub := &sweeperStub{}
	h := &ApprovalHandler{sweeper: stub}
	c, w := newContext(t, http.MethodPost, "/groups/grp-1/approvals/sweep", nil)

	h.Sweep(c)

	require.Equal(t, http.StatusOK, w.Code)
	var out dto.SweepResponse
	decode(t, w, &out)
	assert.Equal(t, 4, out.Promoted)
	assert.Equal(t, "grp-1", stub.group)
}
