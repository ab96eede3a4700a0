// Package models contains domain types for internmatch-engine.
package models

import "time"

// Role identifies what a user is allowed to do in the portal.
type Role string

// Role constants.
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// IsValidRole checks if the given role is valid.
func IsValidRole(role Role) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a portal account. Skills keep insertion order; the order
// matters for display only. Role changes go through the admin mutation,
// never through self-update.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Skills       []string  `json:"skills,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
