package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certisched-api/internal/models"
)

// CertificationScheduleRepository persists certification bookings.
type CertificationScheduleRepository struct {
	db *sqlx.DB
}

// NewCertificationScheduleRepository constructs the repository.
func NewCertificationScheduleRepository(db *sqlx.DB) *CertificationScheduleRepository {
	return &CertificationScheduleRepository{db: db}
}

func (r *CertificationScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByGroup returns every booking of the group, cancelled ones included.
func (r *CertificationScheduleRepository) ListByGroup(ctx context.Context, groupID string) ([]models.CertificationSchedule, error) {
	const query = `SELECT id, group_id, title, technician_id, analyst_id, datetime, shift, type, status, location, technology,
origin, forcado, regras_burladas, created_by, created_at, updated_at
FROM certification_schedules WHERE group_id = $1 ORDER BY datetime ASC, created_at ASC`
	var schedules []models.CertificationSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, groupID); err != nil {
		return nil, fmt.Errorf("list certification schedules: %w", err)
	}
	return schedules, nil
}

// UpsertBatch inserts new bookings and updates status fields of existing ones.
func (r *CertificationScheduleRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, schedules []models.CertificationSchedule) error {
	if len(schedules) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO certification_schedules (id, group_id, title, technician_id, analyst_id, datetime, shift, type, status,
  location, technology, origin, forcado, regras_burladas, created_by, created_at, updated_at)
VALUES (:id, :group_id, :title, :technician_id, :analyst_id, :datetime, :shift, :type, :status,
  :location, :technology, :origin, :forcado, :regras_burladas, :created_by, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
    forcado = EXCLUDED.forcado,
    regras_burladas = EXCLUDED.regras_burladas,
    updated_at = EXCLUDED.updated_at`

	for i := range schedules {
		schedule := &schedules[i]
		if schedule.ID == "" {
			schedule.ID = uuid.NewString()
		}
		if schedule.CreatedAt.IsZero() {
			schedule.CreatedAt = now
		}
		if schedule.BrokenRules == nil {
			schedule.BrokenRules = []string{}
		}
		schedule.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, schedule); err != nil {
			return fmt.Errorf("upsert certification schedule %s: %w", schedule.ID, err)
		}
	}
	return nil
}
