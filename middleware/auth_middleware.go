package middleware

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LunchTimeCode/outerspace/models"
	"github.com/LunchTimeCode/outerspace/token"
	"github.com/LunchTimeCode/outerspace/utils"
)

// TokenDecoder defines the interface for verifying bearer tokens
type TokenDecoder interface {
	// Decode verifies a raw token string and returns its claims
	Decode(tokenString string) (*token.Claims, error)
}

// UserStore is the optional backing store consulted after a token is
// verified. It is advisory only: the token remains the source of truth for
// identity, a miss is logged but does not reject the request.
type UserStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuthMiddleware provides the per-request authorization guards
type AuthMiddleware struct {
	decoder TokenDecoder
	users   UserStore // nil when no user store is configured
	logger  *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(decoder TokenDecoder, users UserStore, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		decoder: decoder,
		users:   users,
		logger:  logger,
	}
}

// RequireAuth rejects requests without a verifiable bearer token. On
// success the verified claims and the authenticated user are added to the
// request context. The decode failure reason is never exposed to the
// caller.
//
// Identity comes from the token's user_id claim. When a user store is
// configured it is consulted, but a missing record only logs a warning:
// the token is trusted as the source of truth.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)

		tokenString := extractBearerToken(r)
		if tokenString == "" {
			m.logger.Warn("missing authorization token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.decoder.Decode(tokenString)
		if err != nil {
			m.logger.Warn("invalid token",
				zap.String("request_id", requestID),
				zap.Error(err))
			// Token values are sensitive, keep them at debug level
			m.logger.Debug("rejected token",
				zap.String("request_id", requestID),
				zap.String("token", tokenString))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		if m.users != nil {
			exists, err := m.users.Exists(ctx, claims.UserID)
			if err != nil {
				m.logger.Warn("user store lookup failed, using token claims",
					zap.String("request_id", requestID),
					zap.Error(err))
			} else if !exists {
				m.logger.Warn("request user not found in database, using token claims",
					zap.String("request_id", requestID),
					zap.String("user_id", claims.UserID.String()))
			}
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithUser(ctx, models.AuthorizedUser{ID: claims.UserID})

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", claims.UserID.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated callers whose claims do not grant the
// admin permission. It must be layered after RequireAuth. The held
// permission set stays in the logs; the caller only sees a generic
// forbidden message.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)

		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			m.logger.Error("claims not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		admin, err := claims.ToAdmin()
		if err != nil {
			m.logger.Warn("insufficient permissions",
				zap.String("request_id", requestID),
				zap.String("user_id", claims.UserID.String()),
				zap.Error(err))
			_ = utils.WriteForbidden(w, "Insufficient permissions")
			return
		}

		m.logger.Debug("admin check passed",
			zap.String("request_id", requestID),
			zap.String("user_id", claims.UserID.String()))

		next.ServeHTTP(w, r.WithContext(WithAdmin(ctx, admin)))
	})
}

// extractBearerToken extracts the Bearer token from the Authorization
// header. Absence of the header or the prefix means "no token".
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
