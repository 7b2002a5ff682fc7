package models

import "time"

// VirtualScoreAdjustment adds penalty points to an analyst's demand score for a date window.
type VirtualScoreAdjustment struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	AnalystID string    `db:"analyst_id" json:"analyst_id"`
	Penalty   int       `db:"penalty" json:"penalty"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Reason    string    `db:"reason" json:"reason"`
	Active    bool      `db:"active" json:"active"`
	CreatedBy string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the adjustment applies on day (inclusive window).
func (a VirtualScoreAdjustment) Covers(day time.Time) bool {
	if !a.Active {
		return false
	}
	d := DateOnly(day)
	return !d.Before(DateOnly(a.StartDate)) && !d.After(DateOnly(a.EndDate))
}

// Overlaps reports whether two active adjustments share at least one day.
func (a VirtualScoreAdjustment) Overlaps(other VirtualScoreAdjustment) bool {
	if !a.Active || !other.Active {
		return false
	}
	return !DateOnly(a.StartDate).After(DateOnly(other.EndDate)) && !DateOnly(other.StartDate).After(DateOnly(a.EndDate))
}
