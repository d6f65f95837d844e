package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/pkg/auth"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
	"github.com/paseoapp/walk-api/pkg/httputil"
)

const ContextActor = "actor"

var (
	ErrMissingToken = apperrors.Unauthorized("Token de autorización requerido")
	ErrInvalidToken = apperrors.Unauthorized("Token inválido o expirado")
)

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer token and stores the caller as an authz.Actor.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.AbortWithError(c, ErrMissingToken)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.AbortWithError(c, ErrInvalidToken)
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			httputil.AbortWithError(c, ErrInvalidToken)
			return
		}

		c.Set(ContextActor, authz.Actor{UserID: claims.UserID, Role: model.Role(claims.RoleID)})
		c.Next()
	}
}

// Actor returns the caller stored by Authenticate.
func Actor(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	return actor, ok
}
