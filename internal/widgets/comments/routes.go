package comments

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/inkwell/internal/middleware"
)

// RegisterRoutes mounts the comment endpoints. Posting is public and rate
// limited per IP; deletion requires adminMw.
func RegisterRoutes(e *echo.Echo, h *Handler, rdb redis.UniversalClient, adminMw ...echo.MiddlewareFunc) {
	g := e.Group("/api/comment")
	g.GET("", h.List)
	g.POST("/user-comment", h.Create,
		middleware.BodyLimit(16*1024),
		middleware.RateLimit(rdb, "comment", 10, time.Minute),
	)
	g.DELETE("/:id", h.Delete, adminMw...)
}
