package ratings

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	// maxPage keeps (page-1)*limit well inside int range. Any page past
	// the data is empty anyway.
	maxPage = 1_000_000
)

// Handler handles HTTP requests for ratings.
type Handler struct {
	service RatingService
}

// NewHandler creates a new rating handler.
func NewHandler(service RatingService) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/rating/user-rating.
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("Rating must be between 1 and 5")
	}

	rating, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Rating created successfully",
		"rating":  rating,
	})
}

// List handles GET /api/rating?blogId&page&limit.
func (h *Handler) List(c echo.Context) error {
	page, limit := 1, defaultPageLimit
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return apperror.NewBadRequest("page must be a positive integer")
		}
		page = min(n, maxPage)
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return apperror.NewBadRequest("limit must be a positive integer")
		}
		limit = min(n, maxPageLimit)
	}

	result, err := h.service.List(c.Request().Context(), c.QueryParam("blogId"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
