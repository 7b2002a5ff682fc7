package models

import (
	"time"

	"github.com/lib/pq"
)

// EventKind classifies analyst unavailability.
type EventKind string

const (
	EventTraining    EventKind = "TRAINING"
	EventMeeting     EventKind = "MEETING"
	EventDayOff      EventKind = "DAY_OFF"
	EventBankedHours EventKind = "BANKED_HOURS"
	EventImproviso   EventKind = "IMPROVISO"
	EventOther       EventKind = "OTHER"
)

// AnalystEvent blocks the involved analysts on a date for a shift scope.
type AnalystEvent struct {
	ID              string         `db:"id" json:"id"`
	GroupID         string         `db:"group_id" json:"group_id"`
	Title           string         `db:"title" json:"title"`
	Kind            EventKind      `db:"kind" json:"kind"`
	InvolvedUserIDs pq.StringArray `db:"involved_user_ids" json:"involved_user_ids"`
	StartDatetime   time.Time      `db:"start_datetime" json:"start_datetime"`
	Shift           Shift          `db:"shift" json:"shift"`
	Color           string         `db:"color" json:"color,omitempty"`
	CreatedBy       string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// DateKey returns the blocked calendar date.
func (e AnalystEvent) DateKey() string {
	return e.StartDatetime.UTC().Format(DateLayout)
}

// Involves reports whether userID is blocked by the event.
func (e AnalystEvent) Involves(userID string) bool {
	for _, id := range e.InvolvedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Blocks reports whether the event makes the requested shift unavailable.
func (e AnalystEvent) Blocks(shift Shift) bool {
	return e.Shift.Overlaps(shift)
}

// EventFilter narrows event listings.
type EventFilter struct {
	UserID string
	From   *time.Time
	To     *time.Time
}
