package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the access tier a user belongs to. It is fixed at registration.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User represents a system user
type User struct {
	Base
	Username       string     `json:"username" db:"username"`
	Email          string     `json:"email" db:"email"`
	Password       string     `json:"password,omitempty" db:"-"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Role           Role       `json:"role" db:"role"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	Phone          *string    `json:"phone" db:"phone"`
	DateOfBirth    *time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender         *string    `json:"gender" db:"gender"`
	Address        *string    `json:"address" db:"address"`
	Specialization *string    `json:"specialization" db:"specialization"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	EmailVerified  bool       `json:"email_verified" db:"email_verified"`
	LastLoginAt    *time.Time `json:"last_login_at" db:"last_login_at"`
	LoginAttempts  int        `json:"-" db:"login_attempts"`
	LockedUntil    *time.Time `json:"-" db:"locked_until"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UpdateProfileRequest represents profile update parameters.
// Role and credentials are not reachable through this path.
type UpdateProfileRequest struct {
	FirstName      *string    `json:"first_name"`
	LastName       *string    `json:"last_name"`
	Phone          *string    `json:"phone"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Gender         *string    `json:"gender" binding:"omitempty,oneof=male female other"`
	Address        *string    `json:"address"`
	Specialization *string    `json:"specialization"`
}

type UserFilters struct {
	Role       Role
	ActiveOnly bool
	SearchTerm string
}

// UserStats is the admin-facing user census.
type UserStats struct {
	TotalUsers     int64 `json:"total_users" db:"total_users"`
	ActivePatients int64 `json:"active_patients" db:"active_patients"`
	ActiveDoctors  int64 `json:"active_doctors" db:"active_doctors"`
	ActiveAdmins   int64 `json:"active_admins" db:"active_admins"`
}

// PublicUser is the subset of User safe to embed in cross-user responses.
type PublicUser struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Specialization *string   `json:"specialization,omitempty"`
}

// Public projects a user into its cross-user response shape.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Name:           u.FullName(),
		Email:          u.Email,
		Role:           u.Role,
		Specialization: u.Specialization,
	}
}
