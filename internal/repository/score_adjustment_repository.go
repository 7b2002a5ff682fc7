package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/certisched-api/internal/models"
)

// ScoreAdjustmentRepository persists virtual score penalties.
type ScoreAdjustmentRepository struct {
	db *sqlx.DB
}

// NewScoreAdjustmentRepository constructs the repository.
func NewScoreAdjustmentRepository(db *sqlx.DB) *ScoreAdjustmentRepository {
	return &ScoreAdjustmentRepository{db: db}
}

func (r *ScoreAdjustmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByGroup returns adjustments ordered by start date.
func (r *ScoreAdjustmentRepository) ListByGroup(ctx context.Context, groupID string) ([]models.VirtualScoreAdjustment, error) {
	const query = `SELECT id, group_id, analyst_id, penalty, start_date, end_date, reason, active, created_by, created_at
FROM virtual_score_adjustments WHERE group_id = $1 ORDER BY start_date ASC, created_at ASC`
	var adjustments []models.VirtualScoreAdjustment
	if err := r.db.SelectContext(ctx, &adjustments, query, groupID); err != nil {
		return nil, fmt.Errorf("list score adjustments: %w", err)
	}
	return adjustments, nil
}

// UpsertBatch writes adjustments by id.
func (r *ScoreAdjustmentRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, adjustments []models.VirtualScoreAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	target := r.exec(exec)

	const query = `
INSERT INTO virtual_score_adjustments (id, group_id, analyst_id, penalty, start_date, end_date, reason, active, created_by, created_at)
VALUES (:id, :group_id, :analyst_id, :penalty, :start_date, :end_date, :reason, :active, :created_by, :created_at)
ON CONFLICT (id) DO UPDATE
SET penalty = EXCLUDED.penalty,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    reason = EXCLUDED.reason,
    active = EXCLUDED.active`

	for i := range adjustments {
		adj := &adjustments[i]
		if adj.ID == "" {
			adj.ID = uuid.NewString()
		}
		if adj.CreatedAt.IsZero() {
			adj.CreatedAt = time.Now().UTC()
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, adj); err != nil {
			return fmt.Errorf("upsert score adjustment %s: %w", adj.ID, err)
		}
	}
	return nil
}

// DeleteByIDs removes adjustments of the group.
func (r *ScoreAdjustmentRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, groupID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM virtual_score_adjustments WHERE group_id = $1 AND id = ANY($2)`
	if _, err := r.exec(exec).ExecContext(ctx, query, groupID, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete score adjustments: %w", err)
	}
	return nil
}
