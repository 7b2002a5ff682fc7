package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certisched-api/internal/models"
)

const technicianColumns = `id, group_id, cpf, name, city, state, technology, training_class, status, sub_reason,
observation, reproof_category, backlog_reason, scheduled_certification_id, generate_certification,
aprovado_manual, reprovado_manual, cancelado_manual, aprovado_auto, aprovado_auto_em, aprovado_auto_regra,
status_updated_at, status_updated_by, created_at, updated_at`

// TechnicianRepository persists technicians.
type TechnicianRepository struct {
	db *sqlx.DB
}

// NewTechnicianRepository constructs the repository.
func NewTechnicianRepository(db *sqlx.DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

func (r *TechnicianRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByGroup returns the group's technicians in enrollment order.
func (r *TechnicianRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Technician, error) {
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE group_id = $1 ORDER BY created_at ASC, id ASC`
	var technicians []models.Technician
	if err := r.db.SelectContext(ctx, &technicians, query, groupID); err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	return technicians, nil
}

// UpsertBatch inserts or updates technicians by id.
func (r *TechnicianRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, technicians []models.Technician) error {
	if len(technicians) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO technicians (id, group_id, cpf, name, city, state, technology, training_class, status, sub_reason,
  observation, reproof_category, backlog_reason, scheduled_certification_id, generate_certification,
  aprovado_manual, reprovado_manual, cancelado_manual, aprovado_auto, aprovado_auto_em, aprovado_auto_regra,
  status_updated_at, status_updated_by, created_at, updated_at)
VALUES (:id, :group_id, :cpf, :name, :city, :state, :technology, :training_class, :status, :sub_reason,
  :observation, :reproof_category, :backlog_reason, :scheduled_certification_id, :generate_certification,
  :aprovado_manual, :reprovado_manual, :cancelado_manual, :aprovado_auto, :aprovado_auto_em, :aprovado_auto_regra,
  :status_updated_at, :status_updated_by, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE
SET cpf = EXCLUDED.cpf,
    name = EXCLUDED.name,
    city = EXCLUDED.city,
    state = EXCLUDED.state,
    technology = EXCLUDED.technology,
    training_class = EXCLUDED.training_class,
    status = EXCLUDED.status,
    sub_reason = EXCLUDED.sub_reason,
    observation = EXCLUDED.observation,
    reproof_category = EXCLUDED.reproof_category,
    backlog_reason = EXCLUDED.backlog_reason,
    scheduled_certification_id = EXCLUDED.scheduled_certification_id,
    generate_certification = EXCLUDED.generate_certification,
    aprovado_manual = EXCLUDED.aprovado_manual,
    reprovado_manual = EXCLUDED.reprovado_manual,
    cancelado_manual = EXCLUDED.cancelado_manual,
    aprovado_auto = EXCLUDED.aprovado_auto,
    aprovado_auto_em = EXCLUDED.aprovado_auto_em,
    aprovado_auto_regra = EXCLUDED.aprovado_auto_regra,
    status_updated_at = EXCLUDED.status_updated_at,
    status_updated_by = EXCLUDED.status_updated_by,
    updated_at = EXCLUDED.updated_at`

	for i := range technicians {
		tech := &technicians[i]
		if tech.ID == "" {
			tech.ID = uuid.NewString()
		}
		if tech.CreatedAt.IsZero() {
			tech.CreatedAt = now
		}
		tech.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, tech); err != nil {
			return fmt.Errorf("upsert technician %s: %w", tech.ID, err)
		}
	}
	return nil
}
