package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
	"github.com/noah-isme/certisched-api/pkg/lock"
)

func TestMutateRequiresGroup(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{})
	ws := newGroupWorkspace(h.deps)

	err := ws.mutate(context.Background(), "", "noop", func(*schedulingState) ([]models.AuditTicket, error) { return nil, nil })
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestMutateDiscardsStateOnError(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{Technicians: []models.Technician{pendingTech("t01", "Campinas", 1)}})
	ws := newGroupWorkspace(h.deps)

	boom := appErrors.Clone(appErrors.ErrConflict, "boom")
	err := ws.mutate(context.Background(), testGroup, "fail", func(state *schedulingState) ([]models.AuditTicket, error) {
		tech, _ := state.technician("t01")
		tech.Status = models.TechnicianApproved
		state.touchTechnician(tech)
		return []models.AuditTicket{{Action: "X"}}, boom
	})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, models.TechnicianPendingCertification, h.technician(t, "t01").Status)
	assert.Empty(t, h.audit.all())
	assert.Zero(t, h.notifier.count())
}

func TestMutateTimesOutOnBusyGroup(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{})
	locker := lock.NewMemoryLocker(20 * time.Millisecond)
	h.deps.Locker = locker
	ws := newGroupWorkspace(h.deps)

	unlock, err := locker.Lock(context.Background(), testGroup)
	require.NoError(t, err)
	defer unlock()

	err = ws.mutate(context.Background(), testGroup, "noop", func(*schedulingState) ([]models.AuditTicket, error) { return nil, nil })
	assert.True(t, errors.Is(err, appErrors.ErrLockTimeout))

	// Other groups are not affected.
	err = ws.mutate(context.Background(), "grp-2", "noop", func(*schedulingState) ([]models.AuditTicket, error) { return nil, nil })
	assert.NoError(t, err)
}

func TestMutateRecordsOperationMetrics(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{})
	metrics := NewMetricsService()
	h.deps.Metrics = metrics
	ws := newGroupWorkspace(h.deps)

	_ = ws.mutate(context.Background(), testGroup, "noop", func(*schedulingState) ([]models.AuditTicket, error) { return nil, nil })
	_ = ws.mutate(context.Background(), "", "noop", func(*schedulingState) ([]models.AuditTicket, error) { return nil, nil })

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.OperationsTotal)
	assert.Equal(t, uint64(1), snap.OperationFailures)
}

func TestTodayUsesConfiguredTimezone(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	ws := newGroupWorkspace(WorkspaceDeps{
		Location: loc,
		Now:      func() time.Time { return time.Date(2024, 6, 11, 1, 30, 0, 0, time.UTC) },
	})
	assert.Equal(t, "2024-06-10", models.DateKey(ws.today()))
}
