package notifications

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts the notification endpoints. Every route acts on the
// signed-in user's own notifications, so authMw is required.
func RegisterRoutes(e *echo.Echo, h *Handler, authMw ...echo.MiddlewareFunc) {
	g := e.Group("/api/notification", authMw...)
	g.GET("", h.List)
	g.GET("/unread-count", h.UnreadCount)
	g.GET("/stream", h.Stream)
	g.PATCH("/read/:id", h.MarkRead)
	g.DELETE("/:id", h.Delete)
}
