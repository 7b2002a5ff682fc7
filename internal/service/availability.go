package service

import (
	"time"

	"github.com/noah-isme/certisched-api/internal/models"
)

// AvailabilityChecker answers slot questions for one analyst and date.
type AvailabilityChecker interface {
	IsSlotBlocked(analystID string, date time.Time, shift models.Shift) bool
	HasTypeConflict(analystID string, date time.Time, target models.ExpertiseType) bool
	ShiftCapacity(analystID string, date time.Time, shift models.Shift, target models.ExpertiseType) int
}

// ShiftLimits caps bookings per analyst and shift by expertise type.
type ShiftLimits struct {
	Virtual    int
	Presential int
}

// Limit returns the cap for the type.
func (l ShiftLimits) Limit(target models.ExpertiseType) int {
	if target == models.ExpertisePresential {
		return l.Presential
	}
	return l.Virtual
}

type stateAvailability struct {
	state    *schedulingState
	limits   ShiftLimits
	released string
}

func newStateAvailability(state *schedulingState, limits ShiftLimits) AvailabilityChecker {
	return &stateAvailability{state: state, limits: limits}
}

// newRebookAvailability answers as if the booking releasedID were already cancelled.
// An empty id releases nothing.
func newRebookAvailability(state *schedulingState, limits ShiftLimits, releasedID string) AvailabilityChecker {
	return &stateAvailability{state: state, limits: limits, released: releasedID}
}

func (a *stateAvailability) IsSlotBlocked(analystID string, date time.Time, shift models.Shift) bool {
	for _, e := range a.state.eventsOn(analystID, date) {
		if e.Blocks(shift) {
			return true
		}
	}
	return false
}

// HasTypeConflict treats every non-cancelled booking of the other type as a conflict so
// a day never mixes virtual and presential work.
func (a *stateAvailability) HasTypeConflict(analystID string, date time.Time, target models.ExpertiseType) bool {
	opposite := target.Opposite()
	for _, sch := range a.state.schedulesOn(analystID, date) {
		if sch.ID != a.released && !sch.Cancelled() && sch.Type == opposite {
			return true
		}
	}
	return false
}

func (a *stateAvailability) ShiftCapacity(analystID string, date time.Time, shift models.Shift, target models.ExpertiseType) int {
	if shift == models.ShiftFullDay {
		morning := a.remaining(analystID, date, models.ShiftMorning, target)
		afternoon := a.remaining(analystID, date, models.ShiftAfternoon, target)
		if afternoon < morning {
			return afternoon
		}
		return morning
	}
	return a.remaining(analystID, date, shift, target)
}

func (a *stateAvailability) remaining(analystID string, date time.Time, shift models.Shift, target models.ExpertiseType) int {
	left := a.limits.Limit(target) - a.occupied(analystID, date, shift)
	if left < 0 {
		return 0
	}
	return left
}

func (a *stateAvailability) occupied(analystID string, date time.Time, shift models.Shift) int {
	return shiftOccupancy(a.state, analystID, date, shift, a.released)
}

// shiftOccupancy counts non-cancelled bookings in the shift, skipping releasedID.
// FULL_DAY bookings sit in both shifts.
func shiftOccupancy(state *schedulingState, analystID string, date time.Time, shift models.Shift, releasedID string) int {
	n := 0
	for _, sch := range state.schedulesOn(analystID, date) {
		if sch.ID != releasedID && !sch.Cancelled() && sch.Shift.Overlaps(shift) {
			n++
		}
	}
	return n
}
