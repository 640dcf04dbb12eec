package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relaycrm/api/internal/models"
	"relaycrm/api/internal/security"
)

// RequireRoles gates a route group on the profile role. The role from the
// access token is the fallback when the profile row is missing.
func RequireRoles(roles ...models.ProfileRole) gin.HandlerFunc {
	roleSet := make(map[models.ProfileRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := currentRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, ok := roleSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}

func currentRole(c *gin.Context) (models.ProfileRole, bool) {
	if profileVal, exists := c.Get(ContextProfile); exists {
		if profile, ok := profileVal.(*models.Profile); ok && profile != nil {
			return profile.Role, true
		}
	}

	claimsVal, exists := c.Get(ContextClaims)
	if !exists {
		return "", false
	}
	claims, ok := claimsVal.(security.AccessClaims)
	if !ok {
		return "", false
	}
	return models.ProfileRole(claims.Role), true
}
