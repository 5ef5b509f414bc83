package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EventRepository defines the data access contract for analytics events.
type EventRepository interface {
	Append(ctx context.Context, event *Event) error

	// AggregateByAction groups events with start <= created_at <= end.
	AggregateByAction(ctx context.Context, start, end time.Time) ([]ActionSummary, error)

	CountDistinctBlogs(ctx context.Context) (int64, error)
	CountByAction(ctx context.Context, action string) (int64, error)
	CountDistinctIPs(ctx context.Context) (int64, error)
	DeleteByBlog(ctx context.Context, blogID string) error
}

// eventRepository implements EventRepository with MariaDB queries.
type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new repository backed by the given DB pool.
func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

// Append inserts an event and sets its ID.
func (r *eventRepository) Append(ctx context.Context, event *Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO analytics_events (blog_id, action, affiliate_url, revenue, ip, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.BlogID, event.Action, event.AffiliateURL, event.Revenue,
		event.IP, event.UserAgent, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting analytics event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting analytics event id: %w", err)
	}
	event.ID = id
	return nil
}

// AggregateByAction returns per-action counts and revenue sums. The result
// is never nil.
func (r *eventRepository) AggregateByAction(ctx context.Context, start, end time.Time) ([]ActionSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT action, COUNT(*), COALESCE(SUM(revenue), 0)
		 FROM analytics_events
		 WHERE created_at BETWEEN ? AND ?
		 GROUP BY action`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating analytics events: %w", err)
	}
	defer rows.Close()

	summaries := []ActionSummary{}
	for rows.Next() {
		var s ActionSummary
		if err := rows.Scan(&s.Action, &s.TotalCount, &s.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scanning analytics summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analytics summaries: %w", err)
	}
	return summaries, nil
}

// CountDistinctBlogs counts blogs that have at least one event.
func (r *eventRepository) CountDistinctBlogs(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(DISTINCT blog_id) FROM analytics_events`)
}

// CountByAction counts every event with the given action.
func (r *eventRepository) CountByAction(ctx context.Context, action string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM analytics_events WHERE action = ?`, action)
}

// CountDistinctIPs counts unique visitor addresses.
func (r *eventRepository) CountDistinctIPs(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(DISTINCT ip) FROM analytics_events WHERE ip <> ''`)
}

// DeleteByBlog removes every event of a blog.
func (r *eventRepository) DeleteByBlog(ctx context.Context, blogID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM analytics_events WHERE blog_id = ?`, blogID); err != nil {
		return fmt.Errorf("deleting analytics events: %w", err)
	}
	return nil
}

func (r *eventRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting analytics events: %w", err)
	}
	return n, nil
}
