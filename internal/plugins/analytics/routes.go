package analytics

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/inkwell/internal/middleware"
)

// RegisterRoutes mounts the analytics endpoints. adminMw guards the
// dashboard queries; tracking is public and rate limited per IP.
func RegisterRoutes(e *echo.Echo, h *Handler, rdb redis.UniversalClient, adminMw ...echo.MiddlewareFunc) {
	g := e.Group("/api/analytics")
	g.POST("/track", h.Track, middleware.RateLimit(rdb, "track", 120, time.Minute))

	g.GET("", h.Aggregate, adminMw...)
	g.GET("/total-blogs", h.TotalBlogs, adminMw...)
	g.GET("/total-views", h.TotalViews, adminMw...)
	g.GET("/total-visitors", h.TotalVisitors, adminMw...)
}
