package smtp

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up mail diagnostics on the admin group. The caller
// applies the auth and admin middleware.
func RegisterRoutes(adminGroup *echo.Group, h *Handler) {
	adminGroup.GET("/mail", h.Status)
	adminGroup.POST("/mail/test", h.TestConnection)
}
