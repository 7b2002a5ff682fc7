package models

import "time"

// GroupSnapshot is every collection of one group, read once per operation.
type GroupSnapshot struct {
	GroupID     string                   `json:"group_id"`
	Technicians []Technician             `json:"technicians"`
	Schedules   []CertificationSchedule  `json:"schedules"`
	Events      []AnalystEvent           `json:"events"`
	Cities      []CityGroup              `json:"cities"`
	Users       []User                   `json:"users"`
	Adjustments []VirtualScoreAdjustment `json:"adjustments"`
	SavedAt     time.Time                `json:"saved_at,omitempty"`
}

// GroupChangeset lists the records one operation wants persisted atomically.
type GroupChangeset struct {
	Technicians        []Technician
	Schedules          []CertificationSchedule
	EventsUpserted     []AnalystEvent
	EventsRemoved      []string
	Cities             []CityGroup
	Adjustments        []VirtualScoreAdjustment
	AdjustmentsRemoved []string
}

// IsEmpty reports whether there is nothing to persist.
func (c GroupChangeset) IsEmpty() bool {
	return len(c.Technicians) == 0 &&
		len(c.Schedules) == 0 &&
		len(c.EventsUpserted) == 0 &&
		len(c.EventsRemoved) == 0 &&
		len(c.Cities) == 0 &&
		len(c.Adjustments) == 0 &&
		len(c.AdjustmentsRemoved) == 0
}

// ChangeNotice tells subscribers that a group's data changed and views should refresh.
type ChangeNotice struct {
	GroupID   string    `json:"group_id"`
	Operation string    `json:"operation"`
	At        time.Time `json:"at"`
}
