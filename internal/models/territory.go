package models

import (
	"time"

	"github.com/lib/pq"
)

// CityGroup configures the expertise type and responsible analysts of a city.
type CityGroup struct {
	ID                    string         `db:"id" json:"id"`
	GroupID               string         `db:"group_id" json:"group_id"`
	Name                  string         `db:"name" json:"name"`
	UF                    string         `db:"uf" json:"uf,omitempty"`
	Type                  ExpertiseType  `db:"type" json:"type"`
	ResponsibleAnalystIDs pq.StringArray `db:"responsible_analyst_ids" json:"responsible_analyst_ids"`
	Active                bool           `db:"active" json:"active"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}

// HasResponsible reports whether profileID may handle presential work in the city.
func (c CityGroup) HasResponsible(profileID string) bool {
	if profileID == "" {
		return false
	}
	for _, id := range c.ResponsibleAnalystIDs {
		if id == profileID {
			return true
		}
	}
	return false
}

// CityConfig is the resolved placement rule for a city.
type CityConfig struct {
	City                 string        `json:"city"`
	ExpertiseType        ExpertiseType `json:"expertise_type"`
	AuthorizedProfileIDs []string      `json:"authorized_profile_ids"`
	Configured           bool          `json:"configured"`
}

// RequiresPresential reports whether technicians of the city must be seen on site.
func (c CityConfig) RequiresPresential() bool {
	return c.Configured && c.ExpertiseType == ExpertisePresential
}
