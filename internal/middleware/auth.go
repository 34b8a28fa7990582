package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"room-service/internal/identity"
	"room-service/internal/roles"
)

const (
	UserContextKey = "user"
	RoleContextKey = "role"
)

// AuthMiddleware validates the Authorization header against the identity
// provider and stores the resolved identity and effective role on the
// context. The role is recomputed on every request, never persisted.
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		user, err := provider.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserContextKey, user)
		c.Set(RoleContextKey, roles.Resolve(user.MetadataRole, user.PrimaryEmail()))
		c.Set("token", parts[1])
		c.Next()
	}
}

// RequireModerator aborts unless the effective role may moderate.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !RoleFromContext(c).CanModerate() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts unless the effective role is admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if RoleFromContext(c) != roles.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// UserFromContext returns the authenticated identity, if present.
func UserFromContext(c *gin.Context) (identity.User, bool) {
	val, ok := c.Get(UserContextKey)
	if !ok {
		return identity.User{}, false
	}
	user, ok := val.(identity.User)
	return user, ok
}

// RoleFromContext returns the effective role, defaulting to user.
func RoleFromContext(c *gin.Context) roles.Role {
	if val, ok := c.Get(RoleContextKey); ok {
		if role, ok := val.(roles.Role); ok {
			return role
		}
	}
	return roles.RoleUser
}
