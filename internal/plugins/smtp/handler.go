package smtp

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes mail diagnostics to admins.
type Handler struct {
	service SMTPService
}

// NewHandler creates a new SMTP handler.
func NewHandler(service SMTPService) *Handler {
	return &Handler{service: service}
}

// Status returns the active mail settings (GET /api/admin/mail).
func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status(c.Request().Context()))
}

// TestConnection checks SMTP connectivity (POST /api/admin/mail/test).
func (h *Handler) TestConnection(c echo.Context) error {
	if err := h.service.TestConnection(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Connection successful"})
}
