package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
)

func availabilityState(t *testing.T, snap models.GroupSnapshot) AvailabilityChecker {
	snap.GroupID = testGroup
	return newStateAvailability(newSchedulingState(&snap, testNow), DefaultSchedulingConfig().Limits)
}

func TestIsSlotBlockedHonoursShiftScope(t *testing.T) {
	checker := availabilityState(t, models.GroupSnapshot{
		Events: []models.AnalystEvent{
			block("ev-1", "a1", "2024-06-10", models.ShiftMorning),
			block("ev-2", "a1", "2024-06-11", models.ShiftFullDay),
		},
	})
	d10, d11 := day(t, "2024-06-10"), day(t, "2024-06-11")

	assert.True(t, checker.IsSlotBlocked("a1", d10, models.ShiftMorning))
	assert.False(t, checker.IsSlotBlocked("a1", d10, models.ShiftAfternoon))
	assert.True(t, checker.IsSlotBlocked("a1", d10, models.ShiftFullDay))
	assert.True(t, checker.IsSlotBlocked("a1", d11, models.ShiftAfternoon))
	assert.False(t, checker.IsSlotBlocked("a2", d11, models.ShiftAfternoon))
}

func TestHasTypeConflictIgnoresCancelled(t *testing.T) {
	cancelled := confirmed("sch-2", "t02", "a1", "2024-06-11", models.ShiftMorning, models.ExpertisePresential)
	cancelled.Status = models.ScheduleCancelled
	completed := confirmed("sch-3", "t03", "a1", "2024-06-12", models.ShiftMorning, models.ExpertisePresential)
	completed.Status = models.ScheduleCompleted
	checker := availabilityState(t, models.GroupSnapshot{
		Schedules: []models.CertificationSchedule{
			confirmed("sch-1", "t01", "a1", "2024-06-10", models.ShiftAfternoon, models.ExpertisePresential),
			cancelled,
			completed,
		},
	})

	assert.True(t, checker.HasTypeConflict("a1", day(t, "2024-06-10"), models.ExpertiseVirtual))
	assert.False(t, checker.HasTypeConflict("a1", day(t, "2024-06-10"), models.ExpertisePresential))
	assert.False(t, checker.HasTypeConflict("a1", day(t, "2024-06-11"), models.ExpertiseVirtual))
	assert.True(t, checker.HasTypeConflict("a1", day(t, "2024-06-12"), models.ExpertiseVirtual))
}

func TestShiftCapacityCountsFullDayInBothShifts(t *testing.T) {
	checker := availabilityState(t, models.GroupSnapshot{
		Schedules: []models.CertificationSchedule{
			confirmed("sch-1", "t01", "a1", "2024-06-10", models.ShiftFullDay, models.ExpertisePresential),
			confirmed("sch-2", "t02", "a1", "2024-06-10", models.ShiftMorning, models.ExpertisePresential),
			confirmed("sch-3", "t03", "a1", "2024-06-11", models.ShiftMorning, models.ExpertiseVirtual),
			confirmed("sch-4", "t04", "a1", "2024-06-11", models.ShiftMorning, models.ExpertiseVirtual),
			confirmed("sch-5", "t05", "a1", "2024-06-11", models.ShiftMorning, models.ExpertiseVirtual),
		},
	})
	d10, d11 := day(t, "2024-06-10"), day(t, "2024-06-11")

	assert.Equal(t, 1, checker.ShiftCapacity("a1", d10, models.ShiftMorning, models.ExpertisePresential))
	assert.Equal(t, 2, checker.ShiftCapacity("a1", d10, models.ShiftAfternoon, models.ExpertisePresential))
	assert.Equal(t, 1, checker.ShiftCapacity("a1", d10, models.ShiftFullDay, models.ExpertisePresential))
	// Over-booked shifts clamp at zero.
	assert.Equal(t, 0, checker.ShiftCapacity("a1", d11, models.ShiftMorning, models.ExpertiseVirtual))
	assert.Equal(t, 2, checker.ShiftCapacity("a1", d11, models.ShiftAfternoon, models.ExpertiseVirtual))
}

func TestCheckAvailabilityCombinesAnswers(t *testing.T) {
	h := newHarness(t, models.GroupSnapshot{
		Events:    []models.AnalystEvent{block("ev-1", "a1", "2024-06-10", models.ShiftMorning)},
		Schedules: []models.CertificationSchedule{confirmed("sch-1", "t01", "a1", "2024-06-10", models.ShiftAfternoon, models.ExpertiseVirtual)},
	})
	svc := NewSchedulingService(h.deps, SchedulingConfig{}, nil)

	out, err := svc.CheckAvailability(context.Background(), testGroup, dto.AvailabilityQuery{AnalystID: "a1", Date: "2024-06-10", Shift: "AFTERNOON", Type: "VIRTUAL"})
	require.NoError(t, err)
	assert.Equal(t, dto.AvailabilityResponse{Remaining: 1, Limit: 2, Available: true}, *out)

	out, err = svc.CheckAvailability(context.Background(), testGroup, dto.AvailabilityQuery{AnalystID: "a1", Date: "2024-06-10", Shift: "MORNING", Type: "PRESENTIAL"})
	require.NoError(t, err)
	assert.True(t, out.Blocked)
	assert.True(t, out.TypeConflict)
	assert.False(t, out.Available)

	_, err = svc.CheckAvailability(context.Background(), testGroup, dto.AvailabilityQuery{AnalystID: "a1", Date: "2024-06-10", Shift: "EVENING", Type: "VIRTUAL"})
	require.Error(t, err)
}

func TestRebookAvailabilitySkipsReleasedBooking(t *testing.T) {
	snap := models.GroupSnapshot{
		GroupID: testGroup,
		Schedules: []models.CertificationSchedule{
			confirmed("sch-1", "t01", "a1", "2024-06-10", models.ShiftMorning, models.ExpertiseVirtual),
			confirmed("sch-2", "t02", "a1", "2024-06-10", models.ShiftMorning, models.ExpertiseVirtual),
		},
	}
	state := newSchedulingState(&snap, testNow)
	limits := DefaultSchedulingConfig().Limits
	d10 := day(t, "2024-06-10")

	plain := newRebookAvailability(state, limits, "")
	assert.True(t, plain.HasTypeConflict("a1", d10, models.ExpertisePresential))
	assert.Equal(t, 0, plain.ShiftCapacity("a1", d10, models.ShiftMorning, models.ExpertiseVirtual))

	released := newRebookAvailability(state, limits, "sch-1")
	assert.True(t, released.HasTypeConflict("a1", d10, models.ExpertisePresential))
	assert.Equal(t, 1, released.ShiftCapacity("a1", d10, models.ShiftMorning, models.ExpertiseVirtual))

	snap.Schedules = snap.Schedules[:1]
	alone := newRebookAvailability(newSchedulingState(&snap, testNow), limits, "sch-1")
	assert.False(t, alone.HasTypeConflict("a1", d10, models.ExpertisePresential))
}
