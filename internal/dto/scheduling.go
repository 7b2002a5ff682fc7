package dto

import "github.com/noah-isme/certisched-api/internal/models"

// RunSchedulingRequest starts an engine pass. An empty start date means today.
type RunSchedulingRequest struct {
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
}

// RunSchedulingResponse totals one engine pass.
type RunSchedulingResponse struct {
	Scheduled int            `json:"scheduled"`
	Backlog   int            `json:"backlog"`
	Reasons   map[string]int `json:"reasons"`
}

// ManualScheduleRequest identifies the slot an operator picked by hand.
type ManualScheduleRequest struct {
	TechnicianID string `json:"technicianId" validate:"required"`
	AnalystID    string `json:"analystId" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Shift        string `json:"shift" validate:"required,oneof=MORNING AFTERNOON FULL_DAY"`
	Type         string `json:"type" validate:"required,oneof=PRESENTIAL VIRTUAL"`
}

// ManualExecuteRequest books the slot, optionally overriding broken rules.
type ManualExecuteRequest struct {
	ManualScheduleRequest
	Forced      bool     `json:"forced"`
	BrokenRules []string `json:"brokenRules"`
	Reason      string   `json:"reason" validate:"omitempty,max=500"`
}

// ManualValidationResponse lists every rule the slot breaks.
type ManualValidationResponse struct {
	CanSchedule bool     `json:"canSchedule"`
	BrokenRules []string `json:"brokenRules"`
	Message     string   `json:"message,omitempty"`
}

// ManualExecuteResponse reports the outcome of a manual booking.
type ManualExecuteResponse struct {
	Success     bool                          `json:"success"`
	Message     string                        `json:"message,omitempty"`
	BrokenRules []string                      `json:"brokenRules,omitempty"`
	Schedule    *models.CertificationSchedule `json:"schedule,omitempty"`
}

// AvailabilityQuery asks about one analyst slot.
type AvailabilityQuery struct {
	AnalystID string `form:"analystId" json:"analystId" validate:"required"`
	Date      string `form:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Shift     string `form:"shift" json:"shift" validate:"required,oneof=MORNING AFTERNOON FULL_DAY"`
	Type      string `form:"type" json:"type" validate:"required,oneof=PRESENTIAL VIRTUAL"`
}

// AvailabilityResponse answers an AvailabilityQuery.
type AvailabilityResponse struct {
	Blocked      bool `json:"blocked"`
	TypeConflict bool `json:"typeConflict"`
	Remaining    int  `json:"remaining"`
	Limit        int  `json:"limit"`
	Available    bool `json:"available"`
}

// ScheduleListQuery filters the schedule listing.
type ScheduleListQuery struct {
	Status    string `form:"status" validate:"omitempty,oneof=CONFIRMED COMPLETED CANCELLED"`
	AnalystID string `form:"analystId"`
	From      string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// ImprovisoRequest declares an analyst unavailable after bookings were confirmed.
type ImprovisoRequest struct {
	AnalystID string `json:"analystId" form:"analystId" validate:"required"`
	Date      string `json:"date" form:"date" validate:"required,datetime=2006-01-02"`
	Shift     string `json:"shift" form:"shift" validate:"required,oneof=MORNING AFTERNOON FULL_DAY"`
	Title     string `json:"title" validate:"omitempty,max=200"`
}

// ImprovisoResponse reports how many bookings were cancelled.
type ImprovisoResponse struct {
	Cancelled int    `json:"cancelled"`
	EventID   string `json:"eventId,omitempty"`
}

// SweepResponse reports the D+1 promotions of one sweep.
type SweepResponse struct {
	Promoted int `json:"promoted"`
}
