package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/auth"
	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// RoleLookup answers the admin capability check for an account.
type RoleLookup interface {
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}

// JWT returns a middleware that validates the bearer token, resolves the caller's admin
// capability and stores the resulting session.Caller on the request context.
func JWT(jwtService *auth.JWTService, roles RoleLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		isAdmin, err := roles.IsAdmin(c.Request.Context(), claims.AccountID)
		if err != nil {
			logger.Error("role lookup failed", zap.Error(err), zap.String("user_id", claims.AccountID.String()))
			response.Internal(c, "failed to resolve session")
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(session.With(c.Request.Context(), claims.Caller(isAdmin)))
		c.Set(ContextUserID, claims.AccountID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// Caller returns the authenticated caller. Only valid behind JWT.
func Caller(c *gin.Context) session.Caller {
	caller, _ := session.From(c.Request.Context())
	return caller
}
