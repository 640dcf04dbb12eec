package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"relaycrm/api/internal/config"
	"relaycrm/api/internal/models"
	"relaycrm/api/internal/repository"
	"relaycrm/api/internal/security"
)

const (
	ContextUser    = "current_user"
	ContextProfile = "current_profile"
	ContextClaims  = "access_claims"
)

// Auth verifies the bearer token, checks the backing session row, loads the
// user, and best-effort loads the profile. A missing profile row does not
// block the request; handlers see a nil profile.
func Auth(cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository, profiles *repository.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			return
		}

		if session.UserID != claims.UserID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}

		if user.Status == models.UserStatusSuspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_suspended"})
			return
		}

		var profile *models.Profile
		if p, err := profiles.GetByUserID(c.Request.Context(), user.ID); err == nil {
			profile = &p
		}

		_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set(ContextClaims, *claims)
		c.Set(ContextUser, user)
		c.Set(ContextProfile, profile)

		c.Next()
	}
}
