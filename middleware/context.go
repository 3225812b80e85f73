package middleware

import (
	"context"

	"github.com/LunchTimeCode/outerspace/models"
	"github.com/LunchTimeCode/outerspace/token"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for verified token claims
	ClaimsKey contextKey = "claims"

	// UserKey is the context key for the authenticated user
	UserKey contextKey = "user"

	// AdminKey is the context key for the admin capability marker
	AdminKey contextKey = "admin"
)

// GetClaimsFromContext retrieves verified token claims from context
func GetClaimsFromContext(ctx context.Context) *token.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*token.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds verified token claims to the context
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserFromContext retrieves the authenticated user from context.
// The second return value is false when no authenticated user is present.
func GetUserFromContext(ctx context.Context) (models.AuthorizedUser, bool) {
	if val := ctx.Value(UserKey); val != nil {
		if user, ok := val.(models.AuthorizedUser); ok {
			return user, true
		}
	}
	return models.AuthorizedUser{}, false
}

// WithUser adds the authenticated user to the context
func WithUser(ctx context.Context, user models.AuthorizedUser) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetAdminFromContext retrieves the admin marker from context.
// The second return value is false when the caller did not pass the admin
// permission check.
func GetAdminFromContext(ctx context.Context) (models.AdminUser, bool) {
	if val := ctx.Value(AdminKey); val != nil {
		if admin, ok := val.(models.AdminUser); ok {
			return admin, true
		}
	}
	return models.AdminUser{}, false
}

// WithAdmin adds the admin marker to the context
func WithAdmin(ctx context.Context, admin models.AdminUser) context.Context {
	return context.WithValue(ctx, AdminKey, admin)
}
