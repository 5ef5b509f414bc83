package aichat

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// Handler handles HTTP requests for the AI assistant.
type Handler struct {
	service ChatService
}

// NewHandler creates a new AI chat handler.
func NewHandler(service ChatService) *Handler {
	return &Handler{service: service}
}

// Chat handles POST /api/openai-chat.
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest(msgPromptRequired)
	}

	reply, err := h.service.Complete(c.Request().Context(), req.Prompt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}
