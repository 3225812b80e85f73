package models

import (
	"time"

	"github.com/google/uuid"
)

// Environment represents a platform environment a user has access to
type Environment string

const (
	EnvironmentProd Environment = "prod"
	EnvironmentTest Environment = "test"
)

// User represents a platform user record in the backing store
type User struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Email        string        `json:"email" db:"email"`
	GivenName    string        `json:"given_name" db:"given_name"`
	FamilyName   string        `json:"family_name" db:"family_name"`
	Environments []Environment `json:"environments" db:"environments"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// HasEnvironment returns true if the user has access to the given environment
func (u *User) HasEnvironment(env Environment) bool {
	for _, e := range u.Environments {
		if e == env {
			return true
		}
	}
	return false
}

// AuthorizedUser is the authenticated user making the request.
// It is constructed per request from verified token claims and never persisted.
type AuthorizedUser struct {
	ID uuid.UUID
}

// AdminUser marks a caller that passed the admin permission check.
// It carries no data; holding a value proves the check succeeded.
type AdminUser struct{}

// MeUser is the response body for the "who am I" endpoint
type MeUser struct {
	ID uuid.UUID `json:"id"`
}
