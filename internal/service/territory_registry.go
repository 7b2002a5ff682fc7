package service

import (
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/pkg/normalize"
)

// TerritoryRegistry resolves city placement rules by normalized name.
type TerritoryRegistry struct {
	byName map[string]models.CityGroup
	cities []models.CityGroup
}

// NewTerritoryRegistry indexes the active cities. When two entries normalize to the
// same name the first one wins.
func NewTerritoryRegistry(cities []models.CityGroup) *TerritoryRegistry {
	r := &TerritoryRegistry{byName: make(map[string]models.CityGroup, len(cities))}
	for _, city := range cities {
		if !city.Active {
			continue
		}
		key := normalize.Key(city.Name)
		if _, exists := r.byName[key]; exists {
			continue
		}
		r.byName[key] = city
		r.cities = append(r.cities, city)
	}
	return r
}

// Lookup returns the configured city.
func (r *TerritoryRegistry) Lookup(city string) (models.CityGroup, bool) {
	c, ok := r.byName[normalize.Key(city)]
	return c, ok
}

// ResolveCityConfig returns the placement rule of a city. Unknown cities carry no
// presential constraint.
func (r *TerritoryRegistry) ResolveCityConfig(city string) (models.CityConfig, bool) {
	c, ok := r.Lookup(city)
	if !ok {
		return models.CityConfig{City: city, ExpertiseType: models.ExpertiseVirtual, AuthorizedProfileIDs: []string{}}, false
	}
	ids := make([]string, len(c.ResponsibleAnalystIDs))
	copy(ids, c.ResponsibleAnalystIDs)
	return models.CityConfig{
		City:                 c.Name,
		ExpertiseType:        c.Type,
		AuthorizedProfileIDs: ids,
		Configured:           true,
	}, true
}

// CitiesForProfile lists the cities an analyst profile is responsible for.
func (r *TerritoryRegistry) CitiesForProfile(profileID string) []models.CityGroup {
	if profileID == "" {
		return nil
	}
	var out []models.CityGroup
	for _, c := range r.cities {
		if c.HasResponsible(profileID) {
			out = append(out, c)
		}
	}
	return out
}

// Cities returns the indexed cities in registry order.
func (r *TerritoryRegistry) Cities() []models.CityGroup {
	out := make([]models.CityGroup, len(r.cities))
	copy(out, r.cities)
	return out
}
