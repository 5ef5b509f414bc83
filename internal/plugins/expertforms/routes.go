package expertforms

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/inkwell/internal/middleware"
)

// RegisterRoutes mounts the expert form endpoints. Intake is public and rate
// limited per IP; everything else requires adminMw.
func RegisterRoutes(e *echo.Echo, h *Handler, rdb redis.UniversalClient, adminMw ...echo.MiddlewareFunc) {
	g := e.Group("/api/expert-form")
	g.POST("/create", h.Submit,
		middleware.BodyLimit(32*1024),
		middleware.RateLimit(rdb, "expert_form", 5, time.Minute),
	)

	g.GET("", h.List, adminMw...)
	g.DELETE("/:id", h.Delete, adminMw...)
	g.POST("/reply/:id", h.Reply, adminMw...)
}
