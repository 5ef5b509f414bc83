package blogs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/analytics"
	"github.com/keyxmakerx/inkwell/internal/plugins/audit"
	"github.com/keyxmakerx/inkwell/internal/plugins/media"
)

// memBlogRepo is an in-memory BlogRepository. ops records mutating calls in
// order so cascade ordering can be asserted.
type memBlogRepo struct {
	mu        sync.Mutex
	blogs     map[string]*Blog
	ops       *[]string
	createErr error
	updateErr error
}

func newMemBlogRepo(ops *[]string) *memBlogRepo {
	if ops == nil {
		ops = &[]string{}
	}
	return &memBlogRepo{blogs: make(map[string]*Blog), ops: ops}
}

func (m *memBlogRepo) log(op string) { *m.ops = append(*m.ops, op) }

func clone(b *Blog) *Blog {
	cp := *b
	cp.Tags = append([]string{}, b.Tags...)
	cp.AffiliateLinks = append([]AffiliateLink{}, b.AffiliateLinks...)
	cp.Images = append([]MediaRef{}, b.Images...)
	if b.Video != nil {
		v := *b.Video
		cp.Video = &v
	}
	return &cp
}

func (m *memBlogRepo) Create(_ context.Context, b *Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.blogs[b.ID] = clone(b)
	return nil
}

func (m *memBlogRepo) Update(_ context.Context, b *Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.blogs[b.ID]
	if !ok {
		return apperror.NewNotFound("Blog not found")
	}
	cp := clone(b)
	cp.ViewCount, cp.ClickCount, cp.CommentCount = stored.ViewCount, stored.ClickCount, stored.CommentCount
	m.blogs[b.ID] = cp
	return nil
}

func (m *memBlogRepo) FindByID(_ context.Context, id string) (*Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blogs[id]
	if !ok {
		return nil, apperror.NewNotFound("Blog not found")
	}
	return clone(b), nil
}

func (m *memBlogRepo) FindBySlug(_ context.Context, slug string) (*Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.blogs {
		if b.Slug == slug {
			return clone(b), nil
		}
	}
	return nil, apperror.NewNotFound("Blog not found")
}

func (m *memBlogRepo) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.blogs {
		if b.Slug == slug && b.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBlogRepo) sorted(filter func(*Blog) bool) []Blog {
	var out []Blog
	for _, b := range m.blogs {
		if filter(b) {
			out = append(out, *clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memBlogRepo) ListAll(context.Context) ([]Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*Blog) bool { return true }), nil
}

func (m *memBlogRepo) ListPublic(_ context.Context, limit, offset int) ([]Blog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(b *Blog) bool { return b.IsPublic() })
	page := []Blog{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		page = append(page, all[i])
	}
	return page, len(all), nil
}

func (m *memBlogRepo) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blogs[id].Status = status
	return nil
}

func (m *memBlogRepo) MarkDeleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("mark_deleted")
	m.blogs[id].Deleted = true
	m.blogs[id].Status = StatusInactive
	return nil
}

func (m *memBlogRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log("delete_row")
	if _, ok := m.blogs[id]; !ok {
		return apperror.NewNotFound("Blog not found")
	}
	delete(m.blogs, id)
	return nil
}

func (m *memBlogRepo) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blogs[id]
	return ok && !b.Deleted, nil
}

func (m *memBlogRepo) IncrementViews(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blogs[id].ViewCount++
	return nil
}

func (m *memBlogRepo) AdjustCommentCount(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blogs[id].CommentCount = max(0, m.blogs[id].CommentCount+delta)
	return nil
}

func (m *memBlogRepo) SetAverageRating(_ context.Context, id string, avg float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blogs[id].AverageRating = avg
	return nil
}

func (m *memBlogRepo) RecordAffiliateClick(_ context.Context, id string, index int) (*AffiliateLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.blogs[id]
	if index < 0 || index >= len(b.AffiliateLinks) {
		return nil, apperror.NewNotFound("Affiliate link not found")
	}
	b.AffiliateLinks[index].ClickCount++
	b.ClickCount++
	link := b.AffiliateLinks[index]
	return &link, nil
}

// --- Mock media store ---

type mockMedia struct {
	ops       *[]string
	uploaded  []media.UploadInput
	deleted   []string
	failAfter int // Fail the upload once this many succeeded; 0 disables.
	seq       int
}

func (m *mockMedia) Upload(_ context.Context, in media.UploadInput) (*media.MediaFile, error) {
	if m.failAfter > 0 && len(m.uploaded) >= m.failAfter {
		return nil, apperror.NewBadRequest("unsupported file type: " + in.MimeType)
	}
	m.seq++
	m.uploaded = append(m.uploaded, in)
	id := fmt.Sprintf("media-%d", m.seq)
	return &media.MediaFile{ID: id, Kind: in.Kind, URL: "https://cdn.example.com/" + id}, nil
}

func (m *mockMedia) Delete(_ context.Context, id string) error {
	if m.ops != nil {
		*m.ops = append(*m.ops, "media:"+id)
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// --- Mock tracker, purger, recorder ---

type mockTracker struct {
	events []analytics.Event
	err    error
}

func (m *mockTracker) Track(_ context.Context, e *analytics.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *e)
	return nil
}

type mockPurger struct {
	name string
	ops  *[]string
	err  error
}

func (m *mockPurger) PurgeBlog(_ context.Context, blogID string) error {
	*m.ops = append(*m.ops, "purge:"+m.name)
	return m.err
}

type mockRecorder struct {
	entries []audit.AuditEntry
}

func (m *mockRecorder) Record(_ context.Context, e *audit.AuditEntry) {
	m.entries = append(m.entries, *e)
}

// --- Helpers ---

type testEnv struct {
	svc      *blogService
	repo     *memBlogRepo
	media    *mockMedia
	tracker  *mockTracker
	recorder *mockRecorder
	ops      *[]string
	clock    *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ops := &[]string{}
	repo := newMemBlogRepo(ops)
	md := &mockMedia{ops: ops}
	tr := &mockTracker{}
	rec := &mockRecorder{}
	svc := NewBlogService(repo, md, tr, rec,
		&mockPurger{name: "analytics", ops: ops},
		&mockPurger{name: "comments", ops: ops},
		&mockPurger{name: "ratings", ops: ops},
	).(*blogService)

	clock := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return &testEnv{svc: svc, repo: repo, media: md, tracker: tr, recorder: rec, ops: ops, clock: &clock}
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n")
