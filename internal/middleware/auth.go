package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smarthealth/healthconnect-api/internal/model"
	pkgauth "github.com/smarthealth/healthconnect-api/pkg/auth"
	"github.com/smarthealth/healthconnect-api/pkg/errors"
	"github.com/smarthealth/healthconnect-api/pkg/httputil"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// TokenRevocationChecker reports whether a token was invalidated by logout.
type TokenRevocationChecker interface {
	IsRevoked(token string) bool
}

type AuthMiddleware struct {
	jwtSvc  pkgauth.JWTService
	revoked TokenRevocationChecker
}

func NewAuthMiddleware(jwtSvc pkgauth.JWTService, revoked TokenRevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, revoked: revoked}
}

// Authenticate verifies the bearer token and sets the user identity in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.Unauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, errors.Unauthorized("invalid authorization format"))
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := m.jwtSvc.ValidateToken(token)
		if err != nil {
			httputil.RespondWithError(c, errors.Unauthorized("invalid token"))
			c.Abort()
			return
		}

		if m.revoked != nil && m.revoked.IsRevoked(token) {
			httputil.RespondWithError(c, errors.Unauthorized("token has been revoked"))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole allows the request through only for the listed roles.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized("missing identity"))
			c.Abort()
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, errors.Forbidden("insufficient role"))
		c.Abort()
	}
}

// UserIDFromContext extracts the authenticated user id set by Authenticate.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RoleFromContext extracts the authenticated role set by Authenticate.
func RoleFromContext(c *gin.Context) (model.Role, bool) {
	v, ok := c.Get(ContextRole)
	if !ok {
		return "", false
	}
	role, ok := v.(model.Role)
	return role, ok
}
