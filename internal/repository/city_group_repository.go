package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certisched-api/internal/models"
)

// CityGroupRepository persists territory configuration.
type CityGroupRepository struct {
	db *sqlx.DB
}

// NewCityGroupRepository constructs the repository.
func NewCityGroupRepository(db *sqlx.DB) *CityGroupRepository {
	return &CityGroupRepository{db: db}
}

func (r *CityGroupRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByGroup returns the group's cities ordered by name.
func (r *CityGroupRepository) ListByGroup(ctx context.Context, groupID string) ([]models.CityGroup, error) {
	const query = `SELECT id, group_id, name, uf, type, responsible_analyst_ids, active, created_at, updated_at
FROM city_groups WHERE group_id = $1 ORDER BY name ASC`
	var cities []models.CityGroup
	if err := r.db.SelectContext(ctx, &cities, query, groupID); err != nil {
		return nil, fmt.Errorf("list city groups: %w", err)
	}
	return cities, nil
}

// UpsertBatch writes cities by id.
func (r *CityGroupRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, cities []models.CityGroup) error {
	if len(cities) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO city_groups (id, group_id, name, uf, type, responsible_analyst_ids, active, created_at, updated_at)
VALUES (:id, :group_id, :name, :uf, :type, :responsible_analyst_ids, :active, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    uf = EXCLUDED.uf,
    type = EXCLUDED.type,
    responsible_analyst_ids = EXCLUDED.responsible_analyst_ids,
    active = EXCLUDED.active,
    updated_at = EXCLUDED.updated_at`

	for i := range cities {
		city := &cities[i]
		if city.ID == "" {
			city.ID = uuid.NewString()
		}
		if city.CreatedAt.IsZero() {
			city.CreatedAt = now
		}
		if city.ResponsibleAnalystIDs == nil {
			city.ResponsibleAnalystIDs = []string{}
		}
		city.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, city); err != nil {
			return fmt.Errorf("upsert city group %s: %w", city.Name, err)
		}
	}
	return nil
}
