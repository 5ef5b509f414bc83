package aichat

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/middleware"
)

// RegisterRoutes mounts the chat endpoint behind adminMw.
func RegisterRoutes(e *echo.Echo, h *Handler, adminMw ...echo.MiddlewareFunc) {
	mw := append([]echo.MiddlewareFunc{middleware.BodyLimit(64 * 1024)}, adminMw...)
	e.POST("/api/openai-chat", h.Chat, mw...)
}
