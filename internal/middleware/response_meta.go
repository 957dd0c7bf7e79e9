package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/middleware/requestid"
)

const responseMetaKey = "response_meta"

// WithResponseMeta seeds the meta block of JSON responses with the request id and
// the viewer's data scope. Run it after JWT so the scope is known.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := map[string]interface{}{}
		if id := requestid.Value(c); id != "" {
			meta["request_id"] = id
		}
		if viewer, ok := Viewer(c); ok {
			if viewer.DepartmentScoped() {
				meta["scope"] = viewer.Department
			} else {
				meta["scope"] = "all"
			}
		}
		c.Set(responseMetaKey, meta)
		c.Next()
	}
}

// SetCacheHit records whether the response was served from the record cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ExtractMeta(c)["cache_hit"] = hit
}

// ExtractMeta returns the request's meta map, creating it when absent.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if value, ok := c.Get(responseMetaKey); ok {
		if meta, ok := value.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := map[string]interface{}{}
	c.Set(responseMetaKey, meta)
	return meta
}
