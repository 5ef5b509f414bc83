package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// Tracker records analytics events. Other plugins depend on this narrow
// interface rather than the full service.
type Tracker interface {
	Track(ctx context.Context, event *Event) error
}

// AnalyticsService handles event recording and dashboard aggregation.
type AnalyticsService interface {
	Tracker

	// Aggregate groups events between two caller-supplied date strings,
	// both bounds inclusive. The result is never nil.
	Aggregate(ctx context.Context, startDate, endDate string) ([]ActionSummary, error)

	TotalBlogs(ctx context.Context) (int64, error)
	TotalViews(ctx context.Context) (int64, error)
	TotalVisitors(ctx context.Context) (int64, error)

	// PurgeBlog deletes a blog's events as part of the blog cascade.
	PurgeBlog(ctx context.Context, blogID string) error
}

// analyticsService implements AnalyticsService.
type analyticsService struct {
	repo EventRepository
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(repo EventRepository) AnalyticsService {
	return &analyticsService{repo: repo}
}

// Track validates and appends an event.
func (s *analyticsService) Track(ctx context.Context, event *Event) error {
	if !validActions[event.Action] {
		return apperror.NewBadRequest("Invalid action")
	}
	if event.Revenue < 0 {
		return apperror.NewBadRequest("Revenue must not be negative")
	}
	if event.Revenue > maxRevenue {
		return apperror.NewBadRequest("Revenue is too large")
	}
	if event.BlogID != nil && utf8.RuneCountInString(*event.BlogID) > maxBlogIDLen {
		return apperror.NewBadRequest("Invalid blogId")
	}
	if event.AffiliateURL != nil && utf8.RuneCountInString(*event.AffiliateURL) > maxAffiliateURLLen {
		return apperror.NewBadRequest("affiliateUrl is too long")
	}

	if err := s.repo.Append(ctx, event); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

// Aggregate parses the bounds and groups events in the window.
func (s *analyticsService) Aggregate(ctx context.Context, startDate, endDate string) ([]ActionSummary, error) {
	startDate, endDate = strings.TrimSpace(startDate), strings.TrimSpace(endDate)
	if startDate == "" || endDate == "" {
		return nil, apperror.NewBadRequest("startDate and endDate are required")
	}

	start, _, err := parseBound(startDate)
	if err != nil {
		return nil, apperror.NewBadRequest("Invalid startDate: " + startDate)
	}
	end, dateOnly, err := parseBound(endDate)
	if err != nil {
		return nil, apperror.NewBadRequest("Invalid endDate: " + endDate)
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Microsecond)
	}

	if start.After(end) {
		return []ActionSummary{}, nil
	}

	summaries, err := s.repo.AggregateByAction(ctx, start, end)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if summaries == nil {
		summaries = []ActionSummary{}
	}

	slog.Debug("analytics aggregated",
		slog.Time("start", start),
		slog.Time("end", end),
		slog.Int("groups", len(summaries)),
	)
	return summaries, nil
}

// TotalBlogs counts distinct blogs with events.
func (s *analyticsService) TotalBlogs(ctx context.Context) (int64, error) {
	return wrapCount(s.repo.CountDistinctBlogs(ctx))
}

// TotalViews counts view events.
func (s *analyticsService) TotalViews(ctx context.Context) (int64, error) {
	return wrapCount(s.repo.CountByAction(ctx, ActionView))
}

// TotalVisitors counts distinct visitor IPs.
func (s *analyticsService) TotalVisitors(ctx context.Context) (int64, error) {
	return wrapCount(s.repo.CountDistinctIPs(ctx))
}

// PurgeBlog deletes a blog's events.
func (s *analyticsService) PurgeBlog(ctx context.Context, blogID string) error {
	if err := s.repo.DeleteByBlog(ctx, blogID); err != nil {
		return apperror.NewInternal(err)
	}
	return nil
}

func wrapCount(n int64, err error) (int64, error) {
	if err != nil {
		return 0, apperror.NewInternal(err)
	}
	return n, nil
}

// boundLayouts are tried in order. RFC3339Nano also accepts values without
// fractional seconds.
var boundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseBound parses a date bound in UTC. dateOnly reports a bare date.
func parseBound(value string) (t time.Time, dateOnly bool, err error) {
	for _, layout := range boundLayouts {
		if t, err = time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), layout == "2006-01-02", nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date %q", value)
}
