package comments

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/auth"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	// maxPage keeps (page-1)*limit well inside int range. Any page past
	// the data is empty anyway.
	maxPage = 1_000_000
)

// Handler handles HTTP requests for comments.
type Handler struct {
	service CommentService
}

// NewHandler creates a new comment handler.
func NewHandler(service CommentService) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/comment/user-comment.
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	comment, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

// List handles GET /api/comment?blogId&page&limit.
func (h *Handler) List(c echo.Context) error {
	page, limit, err := parsePaging(c)
	if err != nil {
		return err
	}

	result, err := h.service.List(c.Request().Context(), c.QueryParam("blogId"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Delete handles DELETE /api/comment/:id.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), auth.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
}

func parsePaging(c echo.Context) (page, limit int, err error) {
	page, limit = 1, defaultPageLimit
	if v := c.QueryParam("page"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 {
			return 0, 0, apperror.NewBadRequest("page must be a positive integer")
		}
		page = min(n, maxPage)
	}
	if v := c.QueryParam("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 {
			return 0, 0, apperror.NewBadRequest("limit must be a positive integer")
		}
		limit = min(n, maxPageLimit)
	}
	return page, limit, nil
}
