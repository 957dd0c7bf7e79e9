package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/middleware"
	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
)

func viewerFromContext(c *gin.Context) (models.Viewer, error) {
	viewer, ok := middleware.Viewer(c)
	if !ok {
		return models.Viewer{}, appErrors.ErrUnauthorized
	}
	return viewer, nil
}

// responseMeta merges the request metadata with cache and timing details.
func responseMeta(c *gin.Context, start time.Time, cacheHit bool) map[string]interface{} {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	return meta
}
