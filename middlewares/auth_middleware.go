package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

// Context keys set by DeviceAuthMiddleware.
const (
	ContextRole      = "role"
	ContextSubject   = "subject"
	ContextTableCode = "table_code"
)

// DeviceAuthMiddleware validates a device token from the Authorization header
// or, for websocket upgrades, the token query parameter.
func DeviceAuthMiddleware(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			utils.AbortWithStatus(c, http.StatusUnauthorized, "token tidak ditemukan")
			return
		}

		claims, err := issuer.ParseToken(token)
		if err != nil {
			utils.AbortWithStatus(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(ContextRole, claims.Role)
		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextTableCode, claims.TableCode)
		c.Next()
	}
}

// RegistrationKeyMiddleware guards device registration with a shared key sent
// as X-Registration-Key. An empty key disables the check.
func RegistrationKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		given := c.GetHeader("X-Registration-Key")
		if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			utils.AbortWithStatus(c, http.StatusUnauthorized, "invalid registration key")
			return
		}
		c.Next()
	}
}
