package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload issued by the identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	GroupID  string   `json:"group_id"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor identifies who triggered an operation, for audit and status stamps.
type Actor struct {
	UserID string
	Name   string
	Role   UserRole
	Screen string
}

// SystemActor is used by background jobs.
var SystemActor = Actor{Name: AuditSystemActor}

// DisplayName falls back to the system actor name.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.UserID != "" {
		return a.UserID
	}
	return AuditSystemActor
}
