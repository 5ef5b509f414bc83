package audit

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the activity feed on the admin group. The caller
// applies the auth and admin middleware.
func RegisterRoutes(adminGroup *echo.Group, h *Handler) {
	adminGroup.GET("/activity", h.Activity)
}
