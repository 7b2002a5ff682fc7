package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/models"
)

func demandSnapshot(t *testing.T) models.GroupSnapshot {
	cancelled := confirmed("sch-x", "t10", "a1", "2024-06-13", models.ShiftMorning, models.ExpertisePresential)
	cancelled.Status = models.ScheduleCancelled
	return models.GroupSnapshot{
		GroupID: testGroup,
		Users:   []models.User{analyst("a1", "prof-a"), analyst("a2", "")},
		Cities:  []models.CityGroup{city("Campinas", models.ExpertisePresential, "prof-a")},
		Technicians: []models.Technician{
			backlogTech("t01", "CAMPINAS"),
			backlogTech("t02", "campinas "),
			backlogTech("t03", "Campinas"),
			backlogTech("t04", "Sorocaba"),
			pendingTech("t05", "Campinas", 1),
		},
		Schedules: []models.CertificationSchedule{
			confirmed("sch-1", "t06", "a1", "2024-06-11", models.ShiftMorning, models.ExpertisePresential),
			confirmed("sch-2", "t07", "a1", "2024-06-12", models.ShiftAfternoon, models.ExpertisePresential),
			confirmed("sch-3", "t08", "a1", "2024-06-25", models.ShiftMorning, models.ExpertisePresential),
			confirmed("sch-4", "t09", "a1", "2024-06-14", models.ShiftMorning, models.ExpertiseVirtual),
			cancelled,
		},
	}
}

func TestDemandIndexCountsActiveAndBacklog(t *testing.T) {
	snap := demandSnapshot(t)
	state := newSchedulingState(&snap, testNow)
	calc := demandCalculator{state: state, weights: DefaultSchedulingConfig().Weights}

	m := calc.compute("a1", state.today)
	assert.Equal(t, 1, m.CityCount)
	assert.Equal(t, 2, m.ActivePresentialCount)
	assert.Equal(t, 3, m.PendingPresentialCount)
	assert.Equal(t, 23, m.DemandIndex)
	assert.Equal(t, models.DemandLow, m.Level)
	assert.Equal(t, 23, m.Score)
	assert.Equal(t, "ANALISTA a1", m.AnalystName)
}

func TestDemandScoreAddsActivePenalty(t *testing.T) {
	snap := demandSnapshot(t)
	snap.Adjustments = []models.VirtualScoreAdjustment{
		{ID: "adj-1", AnalystID: "a1", Penalty: 50, StartDate: day(t, "2024-06-10"), EndDate: day(t, "2024-06-10"), Active: true},
		{ID: "adj-2", AnalystID: "a1", Penalty: 99, StartDate: day(t, "2024-06-01"), EndDate: day(t, "2024-06-09"), Active: true},
		{ID: "adj-3", AnalystID: "a1", Penalty: 99, StartDate: day(t, "2024-06-01"), EndDate: day(t, "2024-06-30"), Active: false},
	}
	state := newSchedulingState(&snap, testNow)
	m := demandCalculator{state: state, weights: DefaultSchedulingConfig().Weights}.compute("a1", state.today)

	assert.Equal(t, 23, m.DemandIndex)
	assert.Equal(t, 50, m.ActivePenalty)
	assert.Equal(t, 73, m.Score)
	assert.Equal(t, models.DemandLow, m.Level)
}

func TestDemandWithoutProfileOnlyCarriesPenalty(t *testing.T) {
	snap := demandSnapshot(t)
	snap.Adjustments = []models.VirtualScoreAdjustment{
		{ID: "adj-1", AnalystID: "a2", Penalty: 15, StartDate: day(t, "2024-06-10"), EndDate: day(t, "2024-06-20"), Active: true},
	}
	state := newSchedulingState(&snap, testNow)
	m := demandCalculator{state: state, weights: DefaultSchedulingConfig().Weights}.compute("a2", state.today)

	assert.Zero(t, m.CityCount)
	assert.Zero(t, m.DemandIndex)
	assert.Equal(t, 15, m.Score)
}

func TestDemandUnknownAnalystIsZero(t *testing.T) {
	snap := demandSnapshot(t)
	state := newSchedulingState(&snap, testNow)
	m := demandCalculator{state: state, weights: DefaultSchedulingConfig().Weights}.compute("ghost", state.today)

	assert.Equal(t, models.AnalystDemandMetrics{AnalystID: "ghost", Level: models.DemandLow}, m)
}

func TestDemandLevelBands(t *testing.T) {
	w := DefaultSchedulingConfig().Weights
	cases := map[int]models.DemandLevel{
		0:   models.DemandLow,
		40:  models.DemandLow,
		41:  models.DemandMedium,
		100: models.DemandMedium,
		101: models.DemandHigh,
	}
	for index, want := range cases {
		assert.Equal(t, want, w.level(index), index)
	}
}

func TestComputeDemandMetricsReadsFreshState(t *testing.T) {
	h := newHarness(t, demandSnapshot(t))
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	m, err := svc.ComputeDemandMetrics(context.Background(), testGroup, "a1")
	require.NoError(t, err)
	assert.Equal(t, 23, m.DemandIndex)

	snap := h.snapshot(t)
	snap.Technicians = append(snap.Technicians, backlogTech("t11", "Campinas"))
	h.store.Seed(*snap)

	m, err = svc.ComputeDemandMetrics(context.Background(), testGroup, "a1")
	require.NoError(t, err)
	assert.Equal(t, 24, m.DemandIndex)

	all, err := svc.ComputeAllDemandMetrics(context.Background(), testGroup)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].AnalystID)
	assert.Equal(t, "a2", all[1].AnalystID)
}
