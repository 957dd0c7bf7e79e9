package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
)

func TestAuditLogsSuccessfulRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "p-1", Role: models.RolePrincipal})
		c.Next()
	})
	router.GET("/export", Audit(zap.New(core), "late_arrivals.export"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/fail", Audit(zap.New(core), "late_arrivals.export"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/export?format=pdf", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "late_arrivals.export", fields["action"])
	assert.Equal(t, "p-1", fields["user_id"])
	assert.Equal(t, "format=pdf", fields["query"])
}
