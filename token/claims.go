package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/LunchTimeCode/outerspace/models"
)

// Permission is a grantable capability tag carried in a token's
// permissions claim. Tags the service does not recognize stay in the
// decoded set but never match a known capability, so unknown or absent
// always means not granted.
type Permission string

// PermissionAdmin gates sensitive administrative operations
const PermissionAdmin Permission = "admin"

// Claims is the verified payload of a token. Values are rebuilt from the
// token on every request and only produced by KeyMaterial.Decode.
type Claims struct {
	Email       string
	UserID      uuid.UUID
	Permissions []Permission
}

// Denial reports a failed permission check. Its message names the
// permissions the caller actually holds; it is meant for internal logs
// and must never be echoed to the caller.
type Denial struct {
	Held []Permission
}

// Error implements the error interface
func (d *Denial) Error() string {
	return fmt.Sprintf("user has only: %v", d.Held)
}

// HasPermission reports whether the claims grant the wanted permission
func (c *Claims) HasPermission(want Permission) bool {
	for _, p := range c.Permissions {
		if p == want {
			return true
		}
	}
	return false
}

// RequirePermission returns nil iff the wanted permission is held,
// otherwise a Denial carrying the full held set
func (c *Claims) RequirePermission(want Permission) error {
	if c.HasPermission(want) {
		return nil
	}
	held := make([]Permission, len(c.Permissions))
	copy(held, c.Permissions)
	return &Denial{Held: held}
}

// ToAdmin maps a successful admin permission check to the AdminUser
// capability marker
func (c *Claims) ToAdmin() (models.AdminUser, error) {
	if err := c.RequirePermission(PermissionAdmin); err != nil {
		return models.AdminUser{}, err
	}
	return models.AdminUser{}, nil
}

// claimsFromPayload extracts the typed claim set from a fully verified
// payload. Unknown extra fields are ignored; a missing permissions field
// defaults to the empty set.
func claimsFromPayload(payload jwt.MapClaims) (*Claims, error) {
	rawID, ok := payload["user_id"]
	if !ok {
		return nil, fmt.Errorf("%w: missing user_id claim", ErrVerification)
	}
	idStr, ok := rawID.(string)
	if !ok {
		return nil, fmt.Errorf("%w: user_id claim is not a string", ErrVerification)
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user_id: %v", ErrVerification, err)
	}

	claims := &Claims{UserID: userID}

	if raw, ok := payload["email"]; ok && raw != nil {
		email, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: email claim is not a string", ErrVerification)
		}
		claims.Email = email
	}

	if raw, ok := payload["permissions"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: permissions claim is not a list", ErrVerification)
		}
		claims.Permissions = make([]Permission, 0, len(list))
		for _, entry := range list {
			tag, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("%w: permissions claim contains a non-string entry", ErrVerification)
			}
			claims.Permissions = append(claims.Permissions, Permission(tag))
		}
	}

	return claims, nil
}
