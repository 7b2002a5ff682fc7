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

// AnalystEventRepository persists analyst calendar blocks.
type AnalystEventRepository struct {
	db *sqlx.DB
}

// NewAnalystEventRepository constructs the repository.
func NewAnalystEventRepository(db *sqlx.DB) *AnalystEventRepository {
	return &AnalystEventRepository{db: db}
}

func (r *AnalystEventRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByGroup returns every event of the group ordered by date.
func (r *AnalystEventRepository) ListByGroup(ctx context.Context, groupID string) ([]models.AnalystEvent, error) {
	const query = `SELECT id, group_id, title, kind, involved_user_ids, start_datetime, shift, color, created_by, created_at
FROM analyst_events WHERE group_id = $1 ORDER BY start_datetime ASC, created_at ASC`
	var events []models.AnalystEvent
	if err := r.db.SelectContext(ctx, &events, query, groupID); err != nil {
		return nil, fmt.Errorf("list analyst events: %w", err)
	}
	return events, nil
}

// UpsertBatch writes events by id.
func (r *AnalystEventRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, events []models.AnalystEvent) error {
	if len(events) == 0 {
		return nil
	}
	target := r.exec(exec)

	const query = `
INSERT INTO analyst_events (id, group_id, title, kind, involved_user_ids, start_datetime, shift, color, created_by, created_at)
VALUES (:id, :group_id, :title, :kind, :involved_user_ids, :start_datetime, :shift, :color, :created_by, :created_at)
ON CONFLICT (id) DO UPDATE
SET title = EXCLUDED.title,
    kind = EXCLUDED.kind,
    involved_user_ids = EXCLUDED.involved_user_ids,
    start_datetime = EXCLUDED.start_datetime,
    shift = EXCLUDED.shift,
    color = EXCLUDED.color`

	for i := range events {
		event := &events[i]
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = time.Now().UTC()
		}
		if event.InvolvedUserIDs == nil {
			event.InvolvedUserIDs = []string{}
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, event); err != nil {
			return fmt.Errorf("upsert analyst event %s: %w", event.ID, err)
		}
	}
	return nil
}

// DeleteByIDs removes events of the group.
func (r *AnalystEventRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, groupID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM analyst_events WHERE group_id = $1 AND id = ANY($2)`
	if _, err := r.exec(exec).ExecContext(ctx, query, groupID, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete analyst events: %w", err)
	}
	return nil
}
