package blogs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/analytics"
	"github.com/keyxmakerx/inkwell/internal/plugins/audit"
	"github.com/keyxmakerx/inkwell/internal/plugins/media"
	"github.com/keyxmakerx/inkwell/internal/sanitize"
)

const (
	maxTitleLength = 300
	summaryRunes   = 200

	// maxSlugAttempts bounds the -2, -3, ... probe before a random suffix.
	maxSlugAttempts = 100
)

// MediaStore is the slice of the media service blogs need.
type MediaStore interface {
	Upload(ctx context.Context, input media.UploadInput) (*media.MediaFile, error)
	Delete(ctx context.Context, id string) error
}

// Purger removes data that belongs to a blog. Comments, ratings, and
// analytics each provide one for the delete cascade.
type Purger interface {
	PurgeBlog(ctx context.Context, blogID string) error
}

// BlogService handles business logic for blogs.
type BlogService interface {
	Create(ctx context.Context, input CreateInput) (*Blog, error)
	Update(ctx context.Context, id, userID string, input UpdateInput) (*Blog, error)
	List(ctx context.Context) ([]Blog, error)
	UpdateStatus(ctx context.Context, id, userID, status string) (*Blog, error)
	Delete(ctx context.Context, id, userID string) error

	// GetBySlug returns a public blog as it was before this view was counted.
	GetBySlug(ctx context.Context, slug string, visitor Visitor) (*Blog, error)
	ListPublic(ctx context.Context, opts ListOptions) (*PublicPage, error)

	// FollowAffiliate counts a click on the link at index and returns its URL.
	FollowAffiliate(ctx context.Context, slug string, index int, visitor Visitor) (string, error)
}

// blogService implements BlogService.
type blogService struct {
	repo     BlogRepository
	media    MediaStore
	tracker  analytics.Tracker
	audit    audit.Recorder
	cascades []Purger
	now      func() time.Time
}

// NewBlogService creates a new blog service. cascades run on delete, in
// order, before the row is removed.
func NewBlogService(repo BlogRepository, mediaStore MediaStore, tracker analytics.Tracker, recorder audit.Recorder, cascades ...Purger) BlogService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &blogService{
		repo:     repo,
		media:    mediaStore,
		tracker:  tracker,
		audit:    recorder,
		cascades: cascades,
		now:      time.Now,
	}
}

// Create validates the form, stores its media, and inserts the blog.
func (s *blogService) Create(ctx context.Context, input CreateInput) (*Blog, error) {
	title := sanitize.PlainText(input.Title)
	if title == "" || strings.TrimSpace(input.Content) == "" {
		return nil, apperror.NewBadRequest("Missing required fields: title, content")
	}
	if len(title) > maxTitleLength {
		return nil, apperror.NewBadRequest(fmt.Sprintf("Title must be at most %d characters", maxTitleLength))
	}

	links, err := parseAffiliateLinks(input.AffiliateLinks, nil)
	if err != nil {
		return nil, err
	}

	slugValue, err := s.generateSlug(ctx, title, "")
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
	}

	content := sanitize.HTML(input.Content)
	now := s.now().UTC()
	blog := &Blog{
		ID:             uuid.New().String(),
		Title:          title,
		Slug:           slugValue,
		Content:        content,
		Summary:        summarize(input.Summary, content),
		Tags:           cleanTags(input.Tags),
		AffiliateLinks: links,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if strings.EqualFold(strings.TrimSpace(input.Status), StatusInactive) {
		blog.Status = StatusInactive
	}
	if input.AuthorID != "" {
		blog.AuthorID = &input.AuthorID
	}

	images, err := s.uploadImages(ctx, input.Images, input.Captions, input.AuthorID)
	if err != nil {
		return nil, err
	}
	blog.Images = images

	if input.Video != nil {
		video, err := s.uploadVideo(ctx, input.Video, input.VideoCaption, input.AuthorID)
		if err != nil {
			s.deleteMedia(ctx, refIDs(images))
			return nil, err
		}
		blog.Video = video
	}

	if err := s.repo.Create(ctx, blog); err != nil {
		s.deleteMedia(ctx, blog.mediaIDs())
		return nil, apperror.NewInternal(fmt.Errorf("creating blog: %w", err))
	}

	s.track(ctx, &analytics.Event{BlogID: &blog.ID, Action: analytics.ActionCreate})
	s.audit.Record(ctx, &audit.AuditEntry{
		UserID:     input.AuthorID,
		Action:     audit.ActionBlogCreated,
		EntityType: "blog",
		EntityID:   blog.ID,
		EntityName: blog.Title,
	})

	slog.Info("blog created",
		slog.String("blog_id", blog.ID),
		slog.String("slug", blog.Slug),
		slog.Int("images", len(blog.Images)),
	)
	return blog, nil
}

// Update applies the fields present in input.
func (s *blogService) Update(ctx context.Context, id, userID string, input UpdateInput) (*Blog, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if title := sanitize.PlainText(*input.Title); title != "" && title != blog.Title {
			if len(title) > maxTitleLength {
				return nil, apperror.NewBadRequest(fmt.Sprintf("Title must be at most %d characters", maxTitleLength))
			}
			slugValue, err := s.generateSlug(ctx, title, blog.ID)
			if err != nil {
				return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
			}
			blog.Title, blog.Slug = title, slugValue
		}
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, apperror.NewBadRequest("Content must not be empty")
		}
		blog.Content = sanitize.HTML(*input.Content)
	}
	if input.Summary != nil {
		blog.Summary = summarize(*input.Summary, blog.Content)
	}
	if input.Tags != nil {
		blog.Tags = cleanTags(*input.Tags)
	}
	if input.AffiliateLinks != nil {
		links, err := parseAffiliateLinks(*input.AffiliateLinks, blog.AffiliateLinks)
		if err != nil {
			return nil, err
		}
		blog.AffiliateLinks = links
	}
	if input.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*input.Status))
		if !validStatus(status) {
			return nil, apperror.NewBadRequest(`Invalid status. Must be "active" or "inactive".`)
		}
		blog.Status = status
	}

	// Replaced media is removed only after the row points at the new files.
	var added, replaced []string
	if len(input.Images) > 0 {
		images, err := s.uploadImages(ctx, input.Images, input.Captions, userID)
		if err != nil {
			return nil, err
		}
		added = append(added, refIDs(images)...)
		replaced = append(replaced, refIDs(blog.Images)...)
		blog.Images = images
	}
	if input.Video != nil {
		video, err := s.uploadVideo(ctx, input.Video, input.VideoCaption, userID)
		if err != nil {
			s.deleteMedia(ctx, added)
			return nil, err
		}
		added = append(added, video.MediaID)
		if blog.Video != nil {
			replaced = append(replaced, blog.Video.MediaID)
		}
		blog.Video = video
	}

	blog.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, blog); err != nil {
		s.deleteMedia(ctx, added)
		return nil, apperror.NewInternal(fmt.Errorf("updating blog: %w", err))
	}
	s.deleteMedia(ctx, replaced)

	s.audit.Record(ctx, &audit.AuditEntry{
		UserID:     userID,
		Action:     audit.ActionBlogUpdated,
		EntityType: "blog",
		EntityID:   blog.ID,
		EntityName: blog.Title,
	})
	return blog, nil
}

// List returns every blog for the admin dashboard.
func (s *blogService) List(ctx context.Context) ([]Blog, error) {
	blogs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return blogs, nil
}

// UpdateStatus switches a blog between active and inactive.
func (s *blogService) UpdateStatus(ctx context.Context, id, userID, status string) (*Blog, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatus(status) {
		return nil, apperror.NewBadRequest(`Invalid status. Must be "active" or "inactive".`)
	}

	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperror.NewInternal(err)
	}

	previous := blog.Status
	blog.Status = status
	s.audit.Record(ctx, &audit.AuditEntry{
		UserID:     userID,
		Action:     audit.ActionBlogStatusChanged,
		EntityType: "blog",
		EntityID:   blog.ID,
		EntityName: blog.Title,
		Details:    map[string]any{"from": previous, "to": status},
	})
	return blog, nil
}

// Delete soft-deletes the blog, removes its media and dependent rows, then
// deletes the row itself.
func (s *blogService) Delete(ctx context.Context, id, userID string) error {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.MarkDeleted(ctx, id); err != nil {
		return apperror.NewInternal(err)
	}
	s.deleteMedia(ctx, blog.mediaIDs())

	for _, p := range s.cascades {
		if err := p.PurgeBlog(ctx, id); err != nil {
			return apperror.NewInternal(fmt.Errorf("purging blog %s: %w", id, err))
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, &audit.AuditEntry{
		UserID:     userID,
		Action:     audit.ActionBlogDeleted,
		EntityType: "blog",
		EntityID:   blog.ID,
		EntityName: blog.Title,
	})
	slog.Info("blog deleted", slog.String("blog_id", id))
	return nil
}

// GetBySlug returns an active blog and counts the view.
func (s *blogService) GetBySlug(ctx context.Context, slugValue string, visitor Visitor) (*Blog, error) {
	blog, err := s.publicBlog(ctx, slugValue)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementViews(ctx, blog.ID); err != nil {
		return nil, apperror.NewInternal(err)
	}
	s.track(ctx, &analytics.Event{
		BlogID:    &blog.ID,
		Action:    analytics.ActionView,
		IP:        visitor.IP,
		UserAgent: visitor.UserAgent,
	})
	return blog, nil
}

// ListPublic returns a page of published blogs.
func (s *blogService) ListPublic(ctx context.Context, opts ListOptions) (*PublicPage, error) {
	blogs, total, err := s.repo.ListPublic(ctx, opts.Limit, opts.Offset())
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &PublicPage{
		Blogs: blogs,
		Pagination: Pagination{
			Total:      total,
			Page:       opts.Page,
			Limit:      opts.Limit,
			TotalPages: (total + opts.Limit - 1) / opts.Limit,
		},
	}, nil
}

// FollowAffiliate records a click and returns the link target.
func (s *blogService) FollowAffiliate(ctx context.Context, slugValue string, index int, visitor Visitor) (string, error) {
	blog, err := s.publicBlog(ctx, slugValue)
	if err != nil {
		return "", err
	}

	link, err := s.repo.RecordAffiliateClick(ctx, blog.ID, index)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", err
		}
		return "", apperror.NewInternal(err)
	}

	s.track(ctx, &analytics.Event{
		BlogID:       &blog.ID,
		Action:       analytics.ActionClick,
		AffiliateURL: &link.URL,
		IP:           visitor.IP,
		UserAgent:    visitor.UserAgent,
	})
	return link.URL, nil
}

// publicBlog loads a blog and hides it unless it is active and not deleted.
func (s *blogService) publicBlog(ctx context.Context, slugValue string) (*Blog, error) {
	blog, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	if !blog.IsPublic() {
		return nil, apperror.NewNotFound("Blog not found")
	}
	return blog, nil
}

// --- Media helpers ---

// uploadImages stores every image, pairing captions by position. On failure
// the images stored so far are removed.
func (s *blogService) uploadImages(ctx context.Context, uploads []Upload, captions []string, userID string) ([]MediaRef, error) {
	refs := make([]MediaRef, 0, len(uploads))
	for i, up := range uploads {
		file, err := s.media.Upload(ctx, media.UploadInput{
			UploadedBy:   userID,
			OriginalName: up.Filename,
			MimeType:     up.MimeType,
			FileBytes:    up.Data,
			Kind:         media.KindImage,
		})
		if err != nil {
			s.deleteMedia(ctx, refIDs(refs))
			return nil, err
		}
		ref := MediaRef{MediaID: file.ID, URL: file.URL}
		if i < len(captions) {
			ref.Caption = sanitize.PlainText(captions[i])
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *blogService) uploadVideo(ctx context.Context, up *Upload, caption, userID string) (*MediaRef, error) {
	file, err := s.media.Upload(ctx, media.UploadInput{
		UploadedBy:   userID,
		OriginalName: up.Filename,
		MimeType:     up.MimeType,
		FileBytes:    up.Data,
		Kind:         media.KindVideo,
	})
	if err != nil {
		return nil, err
	}
	return &MediaRef{MediaID: file.ID, URL: file.URL, Caption: sanitize.PlainText(caption)}, nil
}

// deleteMedia removes media files, logging failures. Missing files are
// already gone and are ignored.
func (s *blogService) deleteMedia(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.media.Delete(ctx, id); err != nil && !apperror.IsNotFound(err) {
			slog.Warn("deleting blog media failed",
				slog.String("media_id", id),
				slog.Any("error", err),
			)
		}
	}
}

func refIDs(refs []MediaRef) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.MediaID)
	}
	return ids
}

// track records an analytics event. Tracking never fails the caller.
func (s *blogService) track(ctx context.Context, event *analytics.Event) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.Track(ctx, event); err != nil {
		slog.Warn("recording analytics event failed",
			slog.String("action", event.Action),
			slog.Any("error", err),
		)
	}
}

// --- Field helpers ---

func validStatus(status string) bool {
	return status == StatusActive || status == StatusInactive
}

// summarize uses the given summary or falls back to an excerpt of content.
func summarize(summary, content string) string {
	if s := sanitize.PlainText(summary); s != "" {
		return s
	}
	return sanitize.Excerpt(content, summaryRunes)
}

// cleanTags splits comma-separated values, trims, and drops empty and
// duplicate tags while keeping order.
func cleanTags(values []string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			t = sanitize.PlainText(t)
			key := strings.ToLower(t)
			if t == "" || seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, t)
		}
	}
	return tags
}

// parseAffiliateLinks decodes the affiliateLinks form field. Click counts
// are carried over from previous links with the same URL.
func parseAffiliateLinks(raw string, previous []AffiliateLink) ([]AffiliateLink, error) {
	links := []AffiliateLink{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return links, nil
	}

	var parsed []AffiliateLink
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, apperror.NewBadRequest("Invalid affiliateLinks: expected a JSON array")
	}

	counts := make(map[string]int64, len(previous))
	for _, p := range previous {
		counts[p.URL] = p.ClickCount
	}

	for _, l := range parsed {
		u, err := url.Parse(strings.TrimSpace(l.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperror.NewBadRequest("Invalid affiliate link URL: " + l.URL)
		}
		link := AffiliateLink{
			Label:      sanitize.PlainText(l.Label),
			URL:        u.String(),
			ClickCount: counts[u.String()],
		}
		if link.Label == "" {
			link.Label = u.Host
		}
		links = append(links, link)
	}
	return links, nil
}

// generateSlug creates a unique slug for a title. If the base slug is taken,
// appends -2, -3, etc. After maxSlugAttempts it falls back to a random suffix.
func (s *blogService) generateSlug(ctx context.Context, title, excludeID string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "blog"
	}
	candidate := base

	for i := 2; i < maxSlugAttempts+2; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random slug suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}
