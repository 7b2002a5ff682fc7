package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certisched-api/internal/models"
)

// AuditRepository writes audit tickets to Postgres.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores one ticket. Tickets are never updated.
func (r *AuditRepository) Insert(ctx context.Context, ticket models.AuditTicket) error {
	const query = `INSERT INTO audit_tickets (ticket_id, timestamp, actor, actor_role, group_id, action, target_type, target_value,
  before_state, after_state, reason, screen, sub_reason, forced, broken_rules)
VALUES (:ticket_id, :timestamp, :actor, :actor_role, :group_id, :action, :target_type, :target_value,
  :before_state, :after_state, :reason, :screen, :sub_reason, :forced, :broken_rules)`
	if ticket.BrokenRules == nil {
		ticket.BrokenRules = []string{}
	}
	if _, err := r.db.NamedExecContext(ctx, query, ticket); err != nil {
		return fmt.Errorf("insert audit ticket: %w", err)
	}
	return nil
}
