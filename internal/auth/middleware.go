package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"callcrm-backend/internal/models"
)

// Middleware authenticates the bearer token and loads the caller's profile.
// A valid token without a matching active profile is a 403, not a 401: the
// caller is authenticated but has no standing in the CRM.
func Middleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenString := extractBearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - No token provided"})
			c.Abort()
			return
		}

		if IsTokenBlacklisted(db, tokenString) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			c.Abort()
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - Invalid token"})
			c.Abort()
			return
		}

		var profile models.Profile
		if err := db.First(&profile, "id = ?", claims.UserID).Error; err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "User profile not found"})
			c.Abort()
			return
		}

		if !profile.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "User account is disabled"})
			c.Abort()
			return
		}

		c.Set("user_id", profile.ID)
		c.Set("email", profile.Email)
		c.Set("role", profile.Role)
		c.Set("token", tokenString)
		c.Set("token_expiry", claims.ExpiresAt.Time)
		c.Set("profile", profile)

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
