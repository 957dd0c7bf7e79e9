package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/response"
)

// RequireRoles admits only viewers whose role is listed. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
		names = append(names, string(role))
	}
	denied := appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("requires role %s", strings.Join(names, " or ")))

	return func(c *gin.Context) {
		viewer, ok := Viewer(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[viewer.Role]; !ok {
			response.Error(c, denied)
			c.Abort()
			return
		}
		c.Next()
	}
}
