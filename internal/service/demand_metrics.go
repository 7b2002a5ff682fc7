package service

import (
	"time"

	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/pkg/normalize"
)

// DemandWeights configures the demand index formula and its bands.
type DemandWeights struct {
	Active     int
	Backlog    int
	Medium     int
	High       int
	WindowDays int
}

func (w DemandWeights) level(index int) models.DemandLevel {
	switch {
	case index > w.High:
		return models.DemandHigh
	case index > w.Medium:
		return models.DemandMedium
	default:
		return models.DemandLow
	}
}

type demandCalculator struct {
	state   *schedulingState
	weights DemandWeights
}

// compute derives the analyst's presential pressure from the live state. Nothing is cached.
func (c demandCalculator) compute(analystID string, today time.Time) models.AnalystDemandMetrics {
	out := models.AnalystDemandMetrics{AnalystID: analystID, Level: models.DemandLow}
	user, ok := c.state.user(analystID)
	if !ok {
		return out
	}
	out.AnalystName = user.FullName
	out.ActivePenalty = c.state.activePenalty(analystID, today)
	out.Score = out.ActivePenalty
	if user.AnalystProfileID == "" {
		return out
	}

	cities := c.state.territory.CitiesForProfile(user.AnalystProfileID)
	out.CityCount = len(cities)

	for _, day := range businessDays(today, c.weights.WindowDays) {
		for _, sch := range c.state.schedulesOn(analystID, day) {
			if sch.Status == models.ScheduleConfirmed && sch.Type == models.ExpertisePresential {
				out.ActivePresentialCount++
			}
		}
	}

	if len(cities) > 0 {
		names := make(map[string]struct{}, len(cities))
		for _, city := range cities {
			names[normalize.Key(city.Name)] = struct{}{}
		}
		for _, t := range c.state.technicians {
			if t.Status != models.TechnicianBacklog {
				continue
			}
			if _, in := names[normalize.Key(t.City)]; in {
				out.PendingPresentialCount++
			}
		}
	}

	out.DemandIndex = out.ActivePresentialCount*c.weights.Active + out.PendingPresentialCount*c.weights.Backlog
	out.Level = c.weights.level(out.DemandIndex)
	out.Score = out.DemandIndex + out.ActivePenalty
	return out
}
