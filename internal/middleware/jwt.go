package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextTokenKey stores the raw bearer token so it can be forwarded upstream.
	ContextTokenKey = "accessToken"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(authService tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		token := strings.TrimSpace(parts[1])
		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// Viewer returns the authenticated caller stored by JWT.
func Viewer(c *gin.Context) (models.Viewer, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.Viewer{}, false
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil {
		return models.Viewer{}, false
	}
	return models.ViewerFromClaims(claims, c.GetString(ContextTokenKey)), true
}
