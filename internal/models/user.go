package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleAnalyst UserRole = "ANALYST"
)

// User is a member of a group. Analysts carry the profile id referenced by territories.
type User struct {
	ID               string    `db:"id" json:"id"`
	GroupID          string    `db:"group_id" json:"group_id"`
	FullName         string    `db:"full_name" json:"full_name"`
	Login            string    `db:"login" json:"login"`
	Role             UserRole  `db:"role" json:"role"`
	Active           bool      `db:"active" json:"active"`
	AnalystProfileID string    `db:"analyst_profile_id" json:"analyst_profile_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// IsActiveAnalyst reports whether the user takes part in scheduling.
func (u User) IsActiveAnalyst() bool {
	return u.Active && u.Role == RoleAnalyst
}
