package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
	"github.com/noah-isme/certisched-api/pkg/lock"
)

func TestRunSchedulingConservesEveryTechnician(t *testing.T) {
	snap := models.GroupSnapshot{Users: []models.User{analyst("a1", ""), analyst("a2", "")}}
	for i := 0; i < 100; i++ {
		snap.Technicians = append(snap.Technicians, pendingTech(fmt.Sprintf("t%03d", i), "Campinas", i))
	}
	h := newHarness(t, snap)
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	result, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)

	// 2 analysts x 10 days x 2 shifts x 2 virtual seats.
	assert.Equal(t, 80, result.Scheduled)
	assert.Equal(t, 20, result.Backlog)
	assert.Equal(t, 20, result.Reasons["SEM VAGA NO PRAZO (10 DIAS)"])

	after := h.snapshot(t)
	assertBookingInvariants(t, after, DefaultSchedulingConfig().Limits)

	bookings := make(map[string]models.CertificationSchedule)
	for _, sch := range after.Schedules {
		bookings[sch.ID] = sch
	}
	scheduled, backlog := 0, 0
	for _, tech := range after.Technicians {
		switch tech.Status {
		case models.TechnicianScheduled:
			scheduled++
			sch, ok := bookings[tech.ScheduleID()]
			require.True(t, ok, tech.ID)
			assert.Equal(t, tech.ID, sch.TechnicianID)
			assert.Equal(t, models.ExpertiseVirtual, sch.Type)
			assert.Equal(t, "CERTIFICAÇÃO AUTOMÁTICA - "+tech.Name, sch.Title)
			assert.Equal(t, "GPON", sch.Technology)
			assert.Empty(t, tech.BacklogReason)
		case models.TechnicianBacklog:
			backlog++
			assert.Equal(t, "SEM VAGA NO PRAZO (10 DIAS)", tech.BacklogReason)
			assert.Nil(t, tech.ScheduledCertificationID)
		default:
			t.Fatalf("technician %s left in %s", tech.ID, tech.Status)
		}
		assert.Equal(t, models.AuditSystemActor, tech.StatusUpdatedBy)
	}
	assert.Equal(t, 80, scheduled)
	assert.Equal(t, 20, backlog)
	assert.Len(t, after.Schedules, 80)
}

func TestRunSchedulingFillsSlotsInDayAnalystShiftOrder(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Users:       []models.User{analyst("a1", "")},
		Technicians: []models.Technician{pendingTech("t01", "Campinas", 1), pendingTech("t02", "Campinas", 2), pendingTech("t03", "Campinas", 3)},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	_, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)

	slot := func(id string) (string, models.Shift) {
		sch := h.schedule(t, h.technician(t, id).ScheduleID())
		return sch.DateKey(), sch.Shift
	}
	d, s := slot("t01")
	assert.Equal(t, "2024-06-10", d)
	assert.Equal(t, models.ShiftMorning, s)
	d, s = slot("t02")
	assert.Equal(t, "2024-06-10", d)
	assert.Equal(t, models.ShiftMorning, s)
	d, s = slot("t03")
	assert.Equal(t, "2024-06-10", d)
	assert.Equal(t, models.ShiftAfternoon, s)
}

func TestRunSchedulingRoutesPresentialCitiesToResponsibleAnalysts(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Users:  []models.User{analyst("a1", "prof-b"), analyst("a2", "prof-a")},
		Cities: []models.CityGroup{city("São Paulo", models.ExpertisePresential, "prof-a")},
		Technicians: []models.Technician{
			pendingTech("t01", "  sao paulo ", 1),
			pendingTech("t02", "Campinas", 2),
		},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	result, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scheduled)

	presential := h.schedule(t, h.technician(t, "t01").ScheduleID())
	assert.Equal(t, "a2", presential.AnalystID)
	assert.Equal(t, models.ExpertisePresential, presential.Type)

	// a2 now holds a presential day, so the virtual booking must land elsewhere.
	virtual := h.schedule(t, h.technician(t, "t02").ScheduleID())
	assert.Equal(t, models.ExpertiseVirtual, virtual.Type)
	assert.Equal(t, "a1", virtual.AnalystID)
	assertBookingInvariants(t, h.snapshot(t), DefaultSchedulingConfig().Limits)
}

func TestRunSchedulingBacklogsCityWithoutResponsibleWithoutScanning(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Users:       []models.User{analyst("a1", "prof-a")},
		Cities:      []models.CityGroup{city("São Paulo", models.ExpertisePresential)},
		Technicians: []models.Technician{pendingTech("t01", "São Paulo", 1)},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)
	var counter *countingChecker
	svc.availabilityFactory = func(state *schedulingState, limits ShiftLimits) AvailabilityChecker {
		counter = &countingChecker{inner: newStateAvailability(state, limits)}
		return counter
	}

	result, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)

	require.NotNil(t, counter)
	assert.Zero(t, counter.calls)
	assert.Equal(t, 1, result.Backlog)
	assert.Equal(t, 1, result.Reasons["SEM ANALISTA RESPONSÁVEL (CIDADE PRESENCIAL)"])

	tech := h.technician(t, "t01")
	assert.Equal(t, models.TechnicianBacklog, tech.Status)
	assert.Equal(t, "SEM ANALISTA RESPONSÁVEL (CIDADE PRESENCIAL)", tech.BacklogReason)
	assert.Empty(t, h.snapshot(t).Schedules)
}

func TestRunSchedulingRejectsPastStart(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{Users: []models.User{analyst("a1", "")}})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	_, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{StartDate: "2024-06-07"}, testActor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, h.audit.all())
}

func TestRunSchedulingSkipsWeekendStart(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Users:       []models.User{analyst("a1", "")},
		Technicians: []models.Technician{pendingTech("t01", "Campinas", 1)},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	_, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{StartDate: "2024-06-15"}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-17", h.schedule(t, h.technician(t, "t01").ScheduleID()).DateKey())
}

func TestRunSchedulingPrefersLowestScoreForVirtual(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Users:       []models.User{analyst("a1", ""), analyst("a2", "")},
		Technicians: []models.Technician{pendingTech("t01", "Campinas", 1)},
		Adjustments: []models.VirtualScoreAdjustment{{
			ID: "adj-1", GroupID: testGroup, AnalystID: "a1", Penalty: 50,
			StartDate: day(t, "2024-06-01"), EndDate: day(t, "2024-06-30"), Active: true,
		}},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	_, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "a2", h.schedule(t, h.technician(t, "t01").ScheduleID()).AnalystID)
}

func TestRunSchedulingHonoursBlocksAndTypeConflicts(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Users:       []models.User{analyst("a1", ""), analyst("a2", "")},
		Technicians: []models.Technician{pendingTech("t01", "Campinas", 1), backlogTech("t90", "Campinas")},
		Events:      []models.AnalystEvent{block("ev-1", "a1", "2024-06-10", models.ShiftFullDay)},
		Schedules:   []models.CertificationSchedule{confirmed("sch-0", "t90", "a2", "2024-06-10", models.ShiftAfternoon, models.ExpertisePresential)},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	_, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)

	sch := h.schedule(t, h.technician(t, "t01").ScheduleID())
	assert.Equal(t, "2024-06-11", sch.DateKey())
	assert.Equal(t, models.ShiftMorning, sch.Shift)
	assert.Equal(t, models.TechnicianBacklog, h.technician(t, "t90").Status, "backlog is not re-processed")
}

func TestRunSchedulingProcessesPoolOldestFirst(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Users: []models.User{analyst("a1", "")},
		Technicians: []models.Technician{
			pendingTech("t01", "Campinas", 2),
			pendingTech("t02", "Campinas", 3),
			pendingTech("t03", "Campinas", 1),
		},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{WindowDays: 1, Limits: ShiftLimits{Virtual: 1}}, nil)

	result, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scheduled)
	assert.Equal(t, 1, result.Reasons["SEM VAGA NO PRAZO (1 DIAS)"])

	assert.Equal(t, models.ShiftMorning, h.schedule(t, h.technician(t, "t03").ScheduleID()).Shift)
	assert.Equal(t, models.ShiftAfternoon, h.schedule(t, h.technician(t, "t01").ScheduleID()).Shift)
	assert.Equal(t, models.TechnicianBacklog, h.technician(t, "t02").Status)
}

func TestRunSchedulingAuditsAndNotifiesOnce(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Users:       []models.User{analyst("a1", "")},
		Technicians: []models.Technician{pendingTech("t01", "Campinas", 1)},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	_, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)

	tickets := h.audit.all()
	require.Len(t, tickets, 1)
	assert.Equal(t, models.AuditAutoScheduling, tickets[0].Action)
	assert.Equal(t, models.AuditTargetGroup, tickets[0].TargetType)
	assert.Equal(t, testGroup, tickets[0].GroupID)
	assert.Equal(t, "GESTORA", tickets[0].Actor)
	assert.Equal(t, "Processamento a partir de 2024-06-10 finalizado: 1 agendados, 0 backlog.", tickets[0].Reason)
	assert.Equal(t, 1, h.notifier.count())

	// Nothing eligible: the run is still audited but nobody needs to refresh.
	_, err = svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.NoError(t, err)
	assert.Len(t, h.audit.all(), 2)
	assert.Equal(t, 1, h.notifier.count())
}

func TestRunSchedulingCommitFailureLeavesNoTrace(t *testing.T) {
	store := &failingStore{
		snap: models.GroupSnapshot{
			GroupID:     testGroup,
			Users:       []models.User{analyst("a1", "")},
			Technicians: []models.Technician{pendingTech("t01", "Campinas", 1)},
		},
		commitErr: errCommit,
	}
	audit := &recordingAudit{}
	notifier := &recordingNotifier{}
	svc := NewSchedulingService(WorkspaceDeps{Store: store, Audit: audit, Notifier: notifier, Now: func() time.Time { return testNow }}, SchedulingConfig{}, nil)

	_, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.True(t, errors.Is(err, errCommit))
	assert.Equal(t, 1, store.commits)
	assert.Empty(t, audit.all())
	assert.Zero(t, notifier.count())
}

func TestRunSchedulingSerializesConcurrentRuns(t *testing.T) {
	snap := models.GroupSnapshot{Users: []models.User{analyst("a1", ""), analyst("a2", "")}}
	for i := 0; i < 30; i++ {
		snap.Technicians = append(snap.Technicians, pendingTech(fmt.Sprintf("t%03d", i), "Campinas", i))
	}
	h := newHarness(t, snap)
	h.deps.Locker = lock.NewMemoryLocker(5 * time.Second)
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	var wg sync.WaitGroup
	totals := make([]int, 4)
	for i := range totals {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.RunScheduling(context.Background(), testGroup, dto.RunSchedulingRequest{}, testActor)
			if err == nil {
				totals[i] = result.Scheduled
			}
		}(i)
	}
	wg.Wait()

	sum := 0
	for _, n := range totals {
		sum += n
	}
	assert.Equal(t, 30, sum)
	assert.Len(t, h.snapshot(t).Schedules, 30)
	assertBookingInvariants(t, h.snapshot(t), DefaultSchedulingConfig().Limits)
}

func TestListSchedulesFiltersAndSorts(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Schedules: []models.CertificationSchedule{
			confirmed("sch-2", "t02", "a1", "2024-06-12", models.ShiftMorning, models.ExpertiseVirtual),
			confirmed("sch-1", "t01", "a1", "2024-06-11", models.ShiftAfternoon, models.ExpertiseVirtual),
			confirmed("sch-3", "t03", "a2", "2024-06-11", models.ShiftMorning, models.ExpertiseVirtual),
		},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	all, err := svc.ListSchedules(context.Background(), testGroup, dto.ScheduleListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"sch-3", "sch-1", "sch-2"}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := svc.ListSchedules(context.Background(), testGroup, dto.ScheduleListQuery{AnalystID: "a1", To: "2024-06-11"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "sch-1", mine[0].ID)

	_, err = svc.ListSchedules(context.Background(), testGroup, dto.ScheduleListQuery{From: "11/06/2024"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
