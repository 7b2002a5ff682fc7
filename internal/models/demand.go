package models

// DemandLevel bands the demand index.
type DemandLevel string

const (
	DemandLow    DemandLevel = "BAIXA"
	DemandMedium DemandLevel = "MÉDIA"
	DemandHigh   DemandLevel = "ALTA"
)

// AnalystDemandMetrics is derived on every call and never persisted.
type AnalystDemandMetrics struct {
	AnalystID              string      `json:"analyst_id"`
	AnalystName            string      `json:"analyst_name,omitempty"`
	CityCount              int         `json:"city_count"`
	PendingPresentialCount int         `json:"pending_presential_count"`
	ActivePresentialCount  int         `json:"active_presential_count"`
	DemandIndex            int         `json:"demand_index"`
	Level                  DemandLevel `json:"level"`
	ActivePenalty          int         `json:"active_penalty"`
	Score                  int         `json:"score"`
}
