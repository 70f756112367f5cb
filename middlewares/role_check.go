package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// RequireRole lets the request through only for the given device roles.
// It must run after DeviceAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			utils.AbortWithStatus(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		utils.AbortWithStatus(c, http.StatusForbidden, "role not allowed")
	}
}
