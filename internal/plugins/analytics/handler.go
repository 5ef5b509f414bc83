package analytics

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// Handler handles HTTP requests for analytics.
type Handler struct {
	service AnalyticsService
}

// NewHandler creates a new analytics handler.
func NewHandler(service AnalyticsService) *Handler {
	return &Handler{service: service}
}

// Aggregate returns per-action totals (GET /api/analytics?startDate&endDate).
func (h *Handler) Aggregate(c echo.Context) error {
	summaries, err := h.service.Aggregate(c.Request().Context(),
		c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}

// TotalBlogs handles GET /api/analytics/total-blogs.
func (h *Handler) TotalBlogs(c echo.Context) error {
	n, err := h.service.TotalBlogs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"totalBlogs": n})
}

// TotalViews handles GET /api/analytics/total-views.
func (h *Handler) TotalViews(c echo.Context) error {
	n, err := h.service.TotalViews(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"totalViews": n})
}

// TotalVisitors handles GET /api/analytics/total-visitors.
func (h *Handler) TotalVisitors(c echo.Context) error {
	n, err := h.service.TotalVisitors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"totalVisitors": n})
}

// Track records a public event (POST /api/analytics/track). Blog creation
// events are only recorded server-side.
func (h *Handler) Track(c echo.Context) error {
	var req TrackRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Action == ActionCreate {
		return apperror.NewBadRequest("Invalid action")
	}

	event := &Event{
		Action:    req.Action,
		IP:        c.RealIP(),
		UserAgent: truncate(c.Request().UserAgent(), maxUserAgentLen),
	}
	if id := strings.TrimSpace(req.BlogID); id != "" {
		event.BlogID = &id
	}
	if u := strings.TrimSpace(req.AffiliateURL); u != "" {
		event.AffiliateURL = &u
	}
	if req.Revenue != nil {
		event.Revenue = *req.Revenue
	}

	if err := h.service.Track(c.Request().Context(), event); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "Event recorded"})
}

// truncate cuts s to at most n runes. Invalid bytes are replaced so the
// result is always valid UTF-8.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
