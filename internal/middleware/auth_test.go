package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/middleware/requestid"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	seen   string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.seen = token
	return s.claims, s.err
}

func newAuthRouter(validator *stubValidator, roles ...models.UserRole) (*gin.Engine, *models.Viewer) {
	gin.SetMode(gin.TestMode)
	captured := &models.Viewer{}
	router := gin.New()
	router.Use(JWT(validator), RequireRoles(roles...))
	router.GET("/", func(c *gin.Context) {
		viewer, _ := Viewer(c)
		*captured = viewer
		c.Status(http.StatusNoContent)
	})
	return router, captured
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router, _ := newAuthRouter(&stubValidator{}, models.RoleHOD)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router, _ := newAuthRouter(&stubValidator{}, models.RoleHOD)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTPropagatesValidationError(t *testing.T) {
	router, _ := newAuthRouter(&stubValidator{err: appErrors.ErrForbidden}, models.RoleHOD)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTStoresViewerWithToken(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "h-1", Role: models.RoleHOD, Department: "CSE"}}
	router, viewer := newAuthRouter(validator, models.RoleHOD, models.RolePrincipal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer  tok-123 ")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "tok-123", validator.seen)
	assert.Equal(t, models.Viewer{UserID: "h-1", Role: models.RoleHOD, Department: "CSE", Token: "tok-123"}, *viewer)
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "h-1", Role: models.RoleHOD, Department: "CSE"}}
	router, _ := newAuthRouter(validator, models.RolePrincipal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "requires role PRINCIPAL")
}

func TestResponseMetaCarriesScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "h-1", Role: models.RoleHOD, Department: "CSE"}}
	var meta map[string]interface{}
	router := gin.New()
	router.Use(requestid.Middleware(), JWT(validator), WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "CSE", meta["scope"])
	assert.Equal(t, "req-42", meta["request_id"])
	assert.Equal(t, true, meta["cache_hit"])
}
