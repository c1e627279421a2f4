package permissions

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Require gates a route on a (resource, action) pair. It expects the auth
// middleware to have stashed the caller's role in the context.
func Require(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "User profile not found"})
			c.Abort()
			return
		}

		if !Allowed(role, resource, action) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": fmt.Sprintf("Forbidden - Missing permission: %s on %s", action, resource),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
