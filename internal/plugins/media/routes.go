package media

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/middleware"
)

// RegisterRoutes mounts the media endpoints on the admin group. The upload
// body is capped at maxUploadSize plus 10% for multipart overhead.
func RegisterRoutes(adminGroup *echo.Group, h *Handler, maxUploadSize int64) {
	g := adminGroup.Group("/media")
	g.POST("/upload", h.Upload, middleware.BodyLimit(maxUploadSize+maxUploadSize/10))
	g.GET("/:id", h.Info)
	g.DELETE("/:id", h.Delete)
}

// ServeLocal serves a LocalStorage root under /media with long-lived cache
// headers; keys embed a UUID and never change.
func ServeLocal(e *echo.Echo, storage *LocalStorage) {
	g := e.Group("/media", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			return next(c)
		}
	})
	g.Static("/", storage.Root())
}
