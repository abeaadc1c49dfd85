package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/pkg/response"
)

// RequireAdmin allows only callers holding the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := session.From(c.Request.Context())
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !caller.IsAdmin {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}
