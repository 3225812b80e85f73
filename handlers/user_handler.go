package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/LunchTimeCode/outerspace/app"
	"github.com/LunchTimeCode/outerspace/middleware"
	"github.com/LunchTimeCode/outerspace/models"
	"github.com/LunchTimeCode/outerspace/utils"
)

// GetCurrentUserHandler handles GET /users/me.
// Returns the authenticated caller's id as asserted by the verified token.
func GetCurrentUserHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r.Context())
		if !ok {
			// RequireAuth always puts the user in context, reaching this
			// means the route was wired without the guard
			deps.Logger.Error("authenticated user missing from context")
			_ = utils.WriteUnauthorized(w, "")
			return
		}

		_ = utils.WriteJSON(w, http.StatusOK, models.MeUser{ID: user.ID})
	}
}

// ListUsersHandler handles GET /admin/users.
// Admin-gated listing of platform user records; responds 503 when the
// service runs without a user store.
func ListUsersHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Users == nil {
			_ = utils.WriteServiceUnavailable(w, "User store not configured")
			return
		}

		users, err := deps.Users.List(r.Context())
		if err != nil {
			deps.Logger.Error("failed to list users", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		if users == nil {
			users = []*models.User{}
		}
		_ = utils.WriteOK(w, users)
	}
}
