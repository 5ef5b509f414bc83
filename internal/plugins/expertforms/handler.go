package expertforms

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/auth"
)

// Handler handles HTTP requests for expert forms.
type Handler struct {
	service FormService
}

// NewHandler creates a new expert form handler.
func NewHandler(service FormService) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /api/expert-form/create.
func (h *Handler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest(msgMissingInfo)
	}

	form, err := h.service.Submit(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Your question has been sent successfully",
		"data":    form,
	})
}

// List handles GET /api/expert-form.
func (h *Handler) List(c echo.Context) error {
	forms, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Get questions successfully",
		"data":    forms,
	})
}

// Delete handles DELETE /api/expert-form/:id.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), auth.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Question deleted successfully"})
}

// Reply handles POST /api/expert-form/reply/:id.
func (h *Handler) Reply(c echo.Context) error {
	var req ReplyRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest(msgReplyEmpty)
	}

	form, err := h.service.Reply(c.Request().Context(), c.Param("id"), req.Message, auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Reply sent and emailed successfully",
		"data":    form,
	})
}
