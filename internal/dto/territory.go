package dto

// UpsertCityRequest creates or updates one city rule.
type UpsertCityRequest struct {
	Name                  string   `json:"name" validate:"required,max=120"`
	UF                    string   `json:"uf" validate:"omitempty,len=2"`
	Type                  string   `json:"type" validate:"required,oneof=PRESENTIAL VIRTUAL"`
	ResponsibleAnalystIDs []string `json:"responsibleAnalystIds" validate:"omitempty,dive,required"`
	Active                *bool    `json:"active"`
}

// CityResponsibilityRequest adds or removes one analyst profile from a city.
type CityResponsibilityRequest struct {
	City      string `json:"city" validate:"required,max=120"`
	ProfileID string `json:"profileId" validate:"required"`
	UF        string `json:"uf" validate:"omitempty,len=2"`
}
