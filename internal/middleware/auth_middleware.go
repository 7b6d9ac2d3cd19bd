// auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"poliventas-service/internal/logger"
	"poliventas-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxUserID    = "userID"
	ctxUserName  = "userName"
	ctxUserRole  = "userRole"
	ctxRequester = "requester"
)

type TokenValidator interface {
	ValidateToken(token string) (*service.AuthUser, error)
}

// Middleware que valida el token y guarda la info del usuario en el contexto
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		user, err := auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ctxUserID, user.ID.Hex())
		c.Set(ctxUserName, user.Name)
		c.Set(ctxUserRole, user.Role)
		c.Set(ctxRequester, user.Requester())
		c.Request = c.Request.WithContext(logger.WithFields(c.Request.Context(),
			zap.String("user_id", user.ID.Hex()),
			zap.String("role", user.Role),
		))
		c.Next()
	}
}

// CurrentUser devuelve el usuario que dejó AuthMiddleware.
func CurrentUser(c *gin.Context) (service.Requester, bool) {
	v, ok := c.Get(ctxRequester)
	if !ok {
		return service.Requester{}, false
	}
	r, ok := v.(service.Requester)
	return r, ok
}
