package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/access"
	"notes-backend/internal/shared/server/respond"
	"notes-backend/internal/shared/telemetry"
)

const (
	userIDKey   = "userId"
	roleKey     = "role"
	identityKey = "identity"
)

// Auth verifies the bearer credential and stores the identity in context.
func Auth(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		token, ok := access.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		id, err := gate.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, access.ErrUnauthenticated) {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			telemetry.Error("auth.identity_lookup_failed", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      err,
			})
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
			return
		}

		c.Set(identityKey, id)
		c.Set(userIDKey, id.UserID)
		c.Set(roleKey, string(id.Role))
		c.Next()
	}
}

// RequireRole rejects callers without role with 403.
func RequireRole(role access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		if !access.RequireRole(id, role) {
			respond.Error(c, http.StatusForbidden, "forbidden", "requires role "+string(role), nil)
			return
		}
		c.Next()
	}
}

// IdentityFromContext fetches the identity set by the auth middleware.
func IdentityFromContext(c *gin.Context) (access.Identity, bool) {
	if c == nil {
		return access.Identity{}, false
	}
	val, ok := c.Get(identityKey)
	if !ok {
		return access.Identity{}, false
	}
	id, ok := val.(access.Identity)
	return id, ok && id.UserID != ""
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
