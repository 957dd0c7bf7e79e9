package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func request(allowed []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(New(allowed))
	router.GET("/late-arrivals", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(method, "/late-arrivals", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCORSMatchesExactAndWildcardOrigins(t *testing.T) {
	allowed := []string{"https://hod.college.edu/", "https://*.principal.college.edu"}

	cases := map[string]bool{
		"https://hod.college.edu":            true,
		"https://HOD.college.edu":            true,
		"https://east.principal.college.edu": true,
		"https://principal.college.edu":      false,
		"http://east.principal.college.edu":  false,
		"https://evil.example":               false,
	}
	for origin, want := range cases {
		rec := request(allowed, http.MethodGet, origin)
		assert.Equal(t, http.StatusOK, rec.Code, origin)
		if want {
			assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		} else {
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := request(nil, http.MethodOptions, "http://localhost:5173")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
