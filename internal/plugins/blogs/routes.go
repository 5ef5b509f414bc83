package blogs

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/middleware"
)

// RegisterRoutes mounts the admin endpoints on adminGroup (already behind
// the admin middleware) and the public read API on e. Create and update
// bodies may carry several files, so their limit is a multiple of the
// per-file maximum.
func RegisterRoutes(e *echo.Echo, adminGroup *echo.Group, h *Handler, maxUploadSize int64) {
	bodyLimit := middleware.BodyLimit(maxUploadSize * 5)

	admin := adminGroup.Group("/blog")
	admin.GET("", h.List)
	admin.POST("/create", h.Create, bodyLimit)
	admin.PUT("/update/:id", h.Update, bodyLimit)
	admin.PUT("/update-status/:id", h.UpdateStatus)
	admin.DELETE("/delete/:id", h.Delete)

	public := e.Group("/api/blog")
	public.GET("", h.ListPublic)
	public.GET("/:slug", h.GetBySlug)
	public.GET("/:slug/go/:index", h.FollowAffiliate)
}
