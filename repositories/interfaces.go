// Package repositories defines the data access interfaces for the
// platform user store.
package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/LunchTimeCode/outerspace/models"
)

// ErrUserNotFound is returned when no user record matches the query
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles platform user record operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// List returns all platform users
	List(ctx context.Context) ([]*models.User, error)

	// Exists reports whether a user record exists for the given ID
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
