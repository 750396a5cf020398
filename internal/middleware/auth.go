package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/handler"
	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/service/auth"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextUserRole = "userRole"
)

type AuthMiddleware struct {
	authService *auth.Service
}

func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate verifies the JWT token and sets staff info in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID.String())
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin allows only users with the admin role
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserRole) != model.RoleAdmin {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorID extracts the authenticated user's ID from the request context.
func ActorID(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(c.GetString(ContextUserID))
	if err != nil {
		return nil
	}
	return &id
}
