package analytics

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// memEventRepo is an in-memory EventRepository with the same inclusive
// window semantics as the SQL implementation.
type memEventRepo struct {
	events    []Event
	appendErr error
	lastStart time.Time
	lastEnd   time.Time
	aggCalls  int
}

func (m *memEventRepo) Append(_ context.Context, e *Event) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, *e)
	return nil
}

func (m *memEventRepo) AggregateByAction(_ context.Context, start, end time.Time) ([]ActionSummary, error) {
	m.aggCalls++
	m.lastStart, m.lastEnd = start, end
	groups := map[string]*ActionSummary{}
	var out []ActionSummary
	for _, e := range m.events {
		if e.CreatedAt.Before(start) || e.CreatedAt.After(end) {
			continue
		}
		g, ok := groups[e.Action]
		if !ok {
			g = &ActionSummary{Action: e.Action}
			groups[e.Action] = g
		}
		g.TotalCount++
		g.TotalRevenue += e.Revenue
	}
	for _, g := range groups {
		out = append(out, *g)
	}
	return out, nil
}

func (m *memEventRepo) CountDistinctBlogs(context.Context) (int64, error) {
	seen := map[string]bool{}
	for _, e := range m.events {
		if e.BlogID != nil {
			seen[*e.BlogID] = true
		}
	}
	return int64(len(seen)), nil
}

func (m *memEventRepo) CountByAction(_ context.Context, action string) (int64, error) {
	var n int64
	for _, e := range m.events {
		if e.Action == action {
			n++
		}
	}
	return n, nil
}

func (m *memEventRepo) CountDistinctIPs(context.Context) (int64, error) {
	seen := map[string]bool{}
	for _, e := range m.events {
		if e.IP != "" {
			seen[e.IP] = true
		}
	}
	return int64(len(seen)), nil
}

func (m *memEventRepo) DeleteByBlog(_ context.Context, blogID string) error {
	kept := m.events[:0]
	for _, e := range m.events {
		if e.BlogID == nil || *e.BlogID != blogID {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(s string) *string { return &s }

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func sorted(s []ActionSummary) []ActionSummary {
	sort.Slice(s, func(i, j int) bool { return s[i].Action < s[j].Action })
	return s
}

// --- Aggregate ---

func TestAggregate_ViewsAndPurchase(t *testing.T) {
	repo := &memEventRepo{}
	svc := NewAnalyticsService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Track(ctx, &Event{Action: ActionView, BlogID: ptr("b1"), CreatedAt: at("2026-05-02T12:00:00Z")}); err != nil {
			t.Fatalf("track: %v", err)
		}
	}
	if err := svc.Track(ctx, &Event{Action: ActionPurchase, Revenue: 50, CreatedAt: at("2026-05-03T08:00:00Z")}); err != nil {
		t.Fatalf("track: %v", err)
	}

	got, err := svc.Aggregate(ctx, "2026-05-01", "2026-05-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = sorted(got)
	want := []ActionSummary{
		{Action: ActionPurchase, TotalCount: 1, TotalRevenue: 50},
		{Action: ActionView, TotalCount: 3, TotalRevenue: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAggregate_EmptyRangeIsEmptyNotNil(t *testing.T) {
	svc := NewAnalyticsService(&memEventRepo{})

	got, err := svc.Aggregate(context.Background(), "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestAggregate_CountsAreAdditive(t *testing.T) {
	repo := &memEventRepo{}
	svc := NewAnalyticsService(repo)
	actions := []string{ActionView, ActionClick, ActionVisit, ActionView, ActionFormSubmit, ActionClick, ActionView}
	for i, a := range actions {
		_ = svc.Track(context.Background(), &Event{Action: a, CreatedAt: at("2026-05-01T00:00:00Z").Add(time.Duration(i) * time.Hour)})
	}
	// One event outside the window.
	_ = svc.Track(context.Background(), &Event{Action: ActionView, CreatedAt: at("2026-06-01T00:00:00Z")})

	got, err := svc.Aggregate(context.Background(), "2026-05-01T00:00:00Z", "2026-05-31T23:59:59Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var total int64
	for _, g := range got {
		total += g.TotalCount
	}
	if total != int64(len(actions)) {
		t.Errorf("sum of counts = %d, want %d", total, len(actions))
	}
}

func TestAggregate_BoundsAreInclusive(t *testing.T) {
	repo := &memEventRepo{}
	svc := NewAnalyticsService(repo)
	_ = svc.Track(context.Background(), &Event{Action: ActionView, CreatedAt: at("2026-05-01T00:00:00Z")})
	_ = svc.Track(context.Background(), &Event{Action: ActionView, CreatedAt: at("2026-05-31T23:30:00Z")})

	got, err := svc.Aggregate(context.Background(), "2026-05-01", "2026-05-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].TotalCount != 2 {
		t.Errorf("expected both boundary events, got %+v", got)
	}
	wantEnd := at("2026-06-01T00:00:00Z").Add(-time.Microsecond)
	if !repo.lastEnd.Equal(wantEnd) {
		t.Errorf("end bound = %v, want %v", repo.lastEnd, wantEnd)
	}
}

func TestAggregate_DateTimeEndIsExact(t *testing.T) {
	repo := &memEventRepo{}
	svc := NewAnalyticsService(repo)

	if _, err := svc.Aggregate(context.Background(), "2026-05-01T00:00:00", "2026-05-02T06:30:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.lastEnd.Equal(at("2026-05-02T06:30:00Z")) {
		t.Errorf("end bound = %v", repo.lastEnd)
	}
}

func TestAggregate_AcceptedFormats(t *testing.T) {
	for _, v := range []string{
		"2026-05-01",
		"2026-05-01T10:00:00",
		"2026-05-01T10:00:00Z",
		"2026-05-01T10:00:00.123Z",
		"2026-05-01T10:00:00+02:00",
	} {
		if _, err := NewAnalyticsService(&memEventRepo{}).Aggregate(context.Background(), v, "2026-12-31"); err != nil {
			t.Errorf("Aggregate(%q) error: %v", v, err)
		}
	}
}

func TestAggregate_Validation(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"missing start", "", "2026-05-01"},
		{"missing end", "2026-05-01", " "},
		{"malformed start", "05/01/2026", "2026-05-31"},
		{"malformed end", "2026-05-01", "yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalyticsService(&memEventRepo{}).Aggregate(context.Background(), tt.start, tt.end)
			assertAppError(t, err, 400)
		})
	}
}

func TestAggregate_StartAfterEnd(t *testing.T) {
	repo := &memEventRepo{}
	got, err := NewAnalyticsService(repo).Aggregate(context.Background(), "2026-06-01", "2026-05-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected [], got %#v", got)
	}
	if repo.aggCalls != 0 {
		t.Error("store should not be queried for an inverted range")
	}
}

// --- Track ---

func TestTrack_Validation(t *testing.T) {
	svc := NewAnalyticsService(&memEventRepo{})

	assertAppError(t, svc.Track(context.Background(), &Event{Action: "share"}), 400)
	assertAppError(t, svc.Track(context.Background(), &Event{Action: ActionPurchase, Revenue: -1}), 400)
}

func TestTrack_ColumnBounds(t *testing.T) {
	repo := &memEventRepo{}
	svc := NewAnalyticsService(repo)
	ctx := context.Background()

	tests := []struct {
		name  string
		event *Event
	}{
		{"blog id", &Event{Action: ActionView, BlogID: ptr(strings.Repeat("b", maxBlogIDLen+1))}},
		{"affiliate url", &Event{Action: ActionClick, AffiliateURL: ptr("https://x.example/" + strings.Repeat("a", maxAffiliateURLLen))}},
		{"revenue", &Event{Action: ActionPurchase, Revenue: 1e15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAppError(t, svc.Track(ctx, tt.event), 400)
		})
	}
	if len(repo.events) != 0 {
		t.Fatalf("rejected events were stored: %+v", repo.events)
	}

	// Values at the limits are accepted.
	ok := &Event{
		Action:       ActionPurchase,
		BlogID:       ptr(strings.Repeat("b", maxBlogIDLen)),
		AffiliateURL: ptr(strings.Repeat("a", maxAffiliateURLLen)),
		Revenue:      maxRevenue,
	}
	if err := svc.Track(ctx, ok); err != nil {
		t.Fatalf("unexpected error at limits: %v", err)
	}
}

func TestTrack_StoreError(t *testing.T) {
	svc := NewAnalyticsService(&memEventRepo{appendErr: errors.New("db down")})
	assertAppError(t, svc.Track(context.Background(), &Event{Action: ActionView}), 500)
}

// --- Totals ---

func TestTotals(t *testing.T) {
	repo := &memEventRepo{}
	svc := NewAnalyticsService(repo)
	ctx := context.Background()
	_ = svc.Track(ctx, &Event{Action: ActionView, BlogID: ptr("b1"), IP: "1.1.1.1"})
	_ = svc.Track(ctx, &Event{Action: ActionView, BlogID: ptr("b2"), IP: "1.1.1.1"})
	_ = svc.Track(ctx, &Event{Action: ActionClick, BlogID: ptr("b2"), IP: "2.2.2.2"})
	_ = svc.Track(ctx, &Event{Action: ActionVisit, IP: "3.3.3.3"})

	if n, _ := svc.TotalBlogs(ctx); n != 2 {
		t.Errorf("TotalBlogs = %d, want 2", n)
	}
	if n, _ := svc.TotalViews(ctx); n != 2 {
		t.Errorf("TotalViews = %d, want 2", n)
	}
	if n, _ := svc.TotalVisitors(ctx); n != 3 {
		t.Errorf("TotalVisitors = %d, want 3", n)
	}

	if err := svc.PurgeBlog(ctx, "b2"); err != nil {
		t.Fatalf("PurgeBlog: %v", err)
	}
	if n, _ := svc.TotalBlogs(ctx); n != 1 {
		t.Errorf("TotalBlogs after purge = %d, want 1", n)
	}
}
