package models

import (
	"time"

	"github.com/lib/pq"
)

// Shift is the scheduling unit within a day.
type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
	ShiftFullDay   Shift = "FULL_DAY"
)

// BookableShifts are walked in this order by the engine.
var BookableShifts = []Shift{ShiftMorning, ShiftAfternoon}

// Valid reports whether s is a known shift.
func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftAfternoon || s == ShiftFullDay
}

// Overlaps reports whether two shift scopes share time. FULL_DAY overlaps everything.
func (s Shift) Overlaps(other Shift) bool {
	return s == ShiftFullDay || other == ShiftFullDay || s == other
}

// StartHour is the fixed start time stamped on schedules.
func (s Shift) StartHour() int {
	if s == ShiftAfternoon {
		return 14
	}
	return 9
}

// SlotTime combines a civil date and the shift start in UTC.
func SlotTime(date time.Time, shift Shift) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, shift.StartHour(), 0, 0, 0, time.UTC)
}

// ExpertiseType distinguishes on-site from remote certification.
type ExpertiseType string

const (
	ExpertisePresential ExpertiseType = "PRESENTIAL"
	ExpertiseVirtual    ExpertiseType = "VIRTUAL"
)

// Valid reports whether t is a known type.
func (t ExpertiseType) Valid() bool {
	return t == ExpertisePresential || t == ExpertiseVirtual
}

// Opposite returns the other expertise type.
func (t ExpertiseType) Opposite() ExpertiseType {
	if t == ExpertisePresential {
		return ExpertiseVirtual
	}
	return ExpertisePresential
}

// Label is the Portuguese name used in messages.
func (t ExpertiseType) Label() string {
	if t == ExpertisePresential {
		return "PRESENCIAL"
	}
	return "VIRTUAL"
}

// ScheduleStatus tracks the certification booking lifecycle.
type ScheduleStatus string

const (
	ScheduleConfirmed ScheduleStatus = "CONFIRMED"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
	ScheduleCancelled ScheduleStatus = "CANCELLED"
)

// ScheduleOrigin records which flow created a booking.
type ScheduleOrigin string

const (
	OriginAuto   ScheduleOrigin = "AUTO"
	OriginManual ScheduleOrigin = "MANUAL"
)

// CertificationSchedule books a technician with an analyst on a date and shift.
type CertificationSchedule struct {
	ID           string         `db:"id" json:"id"`
	GroupID      string         `db:"group_id" json:"group_id"`
	Title        string         `db:"title" json:"title"`
	TechnicianID string         `db:"technician_id" json:"technician_id"`
	AnalystID    string         `db:"analyst_id" json:"analyst_id"`
	Datetime     time.Time      `db:"datetime" json:"datetime"`
	Shift        Shift          `db:"shift" json:"shift"`
	Type         ExpertiseType  `db:"type" json:"type"`
	Status       ScheduleStatus `db:"status" json:"status"`
	Location     string         `db:"location" json:"location,omitempty"`
	Technology   string         `db:"technology" json:"technology,omitempty"`
	Origin       ScheduleOrigin `db:"origin" json:"origin"`
	Forced       bool           `db:"forcado" json:"forcado"`
	BrokenRules  pq.StringArray `db:"regras_burladas" json:"regras_burladas,omitempty"`
	CreatedBy    string         `db:"created_by" json:"created_by"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// DateKey returns the booking's calendar date.
func (s CertificationSchedule) DateKey() string {
	return s.Datetime.UTC().Format(DateLayout)
}

// Cancelled reports whether the booking was cancelled.
func (s CertificationSchedule) Cancelled() bool {
	return s.Status == ScheduleCancelled
}

// ScheduleFilter narrows schedule listings.
type ScheduleFilter struct {
	Status    ScheduleStatus
	AnalystID string
	From      *time.Time
	To        *time.Time
}
