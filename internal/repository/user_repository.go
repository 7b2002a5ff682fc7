package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/certisched-api/internal/models"
)

const userColumns = `id, group_id, full_name, login, role, active, analyst_profile_id, created_at, updated_at`

// UserRepository provides database access to group members.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ListByGroup returns the members of a group ordered by name.
func (r *UserRepository) ListByGroup(ctx context.Context, groupID string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE group_id = $1 ORDER BY full_name ASC, id ASC`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, groupID); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Upsert writes a user mirrored from the identity provider.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, group_id, full_name, login, role, active, analyst_profile_id, created_at, updated_at)
VALUES (:id, :group_id, :full_name, :login, :role, :active, :analyst_profile_id, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE
SET group_id = EXCLUDED.group_id, full_name = EXCLUDED.full_name, login = EXCLUDED.login, role = EXCLUDED.role,
    active = EXCLUDED.active, analyst_profile_id = EXCLUDED.analyst_profile_id, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
