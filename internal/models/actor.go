package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the authorization role of an authenticated actor.
// It is resolved exactly once, at the authentication boundary, and passed
// through the core as a typed value.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a raw claim value into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleMentor, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated caller of an API operation
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

// IsAdmin reports whether the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsMentor reports whether the actor has the mentor role
func (a Actor) IsMentor() bool {
	return a.Role == RoleMentor
}

// IsStudent reports whether the actor has the student role
func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}
