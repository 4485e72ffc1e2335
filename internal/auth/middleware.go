package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userContextKey = "auth.user"

// RequireAdmin rejects requests without a valid staff token and stores the
// resolved user on the context.
func RequireAdmin(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
			return
		}

		user, err := s.Authenticate(c.Request.Context(), raw)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotStaff):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied. Admin privileges required."})
			return
		case errors.Is(err, ErrInactive):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
			return
		case errors.Is(err, ErrInvalidToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
			return
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// bearerToken accepts both "Bearer <t>" and "Token <t>".
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return strings.TrimSpace(token)
	}
	return ""
}

// CurrentUser returns the authenticated admin, or nil on public routes.
func CurrentUser(c *gin.Context) *AdminUser {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*AdminUser); ok {
			return user
		}
	}
	return nil
}

// Username of the authenticated admin, empty when unauthenticated.
func Username(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.Username
	}
	return ""
}
