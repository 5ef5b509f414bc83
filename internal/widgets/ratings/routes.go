package ratings

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/inkwell/internal/middleware"
)

// RegisterRoutes mounts the public rating endpoints.
func RegisterRoutes(e *echo.Echo, h *Handler, rdb redis.UniversalClient) {
	g := e.Group("/api/rating")
	g.GET("", h.List)
	g.POST("/user-rating", h.Create,
		middleware.BodyLimit(4*1024),
		middleware.RateLimit(rdb, "rating", 10, time.Minute),
	)
}
