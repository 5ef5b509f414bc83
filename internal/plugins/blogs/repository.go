package blogs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// BlogRepository defines the data access contract for blogs.
type BlogRepository interface {
	Create(ctx context.Context, blog *Blog) error
	Update(ctx context.Context, blog *Blog) error
	FindByID(ctx context.Context, id string) (*Blog, error)
	FindBySlug(ctx context.Context, slug string) (*Blog, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	ListAll(ctx context.Context) ([]Blog, error)
	ListPublic(ctx context.Context, limit, offset int) ([]Blog, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	MarkDeleted(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	// Exists reports whether a non-deleted blog has the given ID.
	Exists(ctx context.Context, id string) (bool, error)

	// Counter updates are single SQL statements so concurrent hits are not lost.
	IncrementViews(ctx context.Context, id string) error
	AdjustCommentCount(ctx context.Context, id string, delta int) error
	SetAverageRating(ctx context.Context, id string, avg float64) error

	// RecordAffiliateClick bumps the link at index and the blog's click
	// counter under a row lock, returning the link.
	RecordAffiliateClick(ctx context.Context, id string, index int) (*AffiliateLink, error)
}

// blogRepository implements BlogRepository with MariaDB queries.
type blogRepository struct {
	db *sql.DB
}

// NewBlogRepository creates a new blog repository.
func NewBlogRepository(db *sql.DB) BlogRepository {
	return &blogRepository{db: db}
}

const blogColumns = `id, title, slug, content, summary, tags, author_id, affiliate_links,
	images, video, view_count, click_count, comment_count, average_rating,
	deleted, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner) (*Blog, error) {
	b := &Blog{}
	var tagsJSON, linksJSON, imagesJSON, videoJSON []byte
	err := row.Scan(
		&b.ID, &b.Title, &b.Slug, &b.Content, &b.Summary, &tagsJSON, &b.AuthorID, &linksJSON,
		&imagesJSON, &videoJSON, &b.ViewCount, &b.ClickCount, &b.CommentCount, &b.AverageRating,
		&b.Deleted, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalOptional(tagsJSON, &b.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if err := unmarshalOptional(linksJSON, &b.AffiliateLinks); err != nil {
		return nil, fmt.Errorf("unmarshaling affiliate links: %w", err)
	}
	if err := unmarshalOptional(imagesJSON, &b.Images); err != nil {
		return nil, fmt.Errorf("unmarshaling images: %w", err)
	}
	if len(videoJSON) > 0 && string(videoJSON) != "null" {
		b.Video = &MediaRef{}
		if err := json.Unmarshal(videoJSON, b.Video); err != nil {
			return nil, fmt.Errorf("unmarshaling video: %w", err)
		}
	}
	normalize(b)
	return b, nil
}

func unmarshalOptional(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// normalize replaces nil slices so they encode as [].
func normalize(b *Blog) {
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.AffiliateLinks == nil {
		b.AffiliateLinks = []AffiliateLink{}
	}
	if b.Images == nil {
		b.Images = []MediaRef{}
	}
}

// jsonColumns marshals the JSON-typed columns of a blog.
func jsonColumns(b *Blog) (tags, links, images []byte, video any, err error) {
	normalize(b)
	if tags, err = json.Marshal(b.Tags); err != nil {
		return
	}
	if links, err = json.Marshal(b.AffiliateLinks); err != nil {
		return
	}
	if images, err = json.Marshal(b.Images); err != nil {
		return
	}
	if b.Video != nil {
		var v []byte
		if v, err = json.Marshal(b.Video); err != nil {
			return
		}
		video = v
	}
	return
}

// Create inserts a new blog.
func (r *blogRepository) Create(ctx context.Context, b *Blog) error {
	tags, links, images, video, err := jsonColumns(b)
	if err != nil {
		return fmt.Errorf("marshaling blog: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO blogs (id, title, slug, content, summary, tags, author_id, affiliate_links,
		                    images, video, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Slug, b.Content, b.Summary, tags, b.AuthorID, links,
		images, video, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting blog: %w", err)
	}
	return nil
}

// Update writes the editable fields of a blog. Counters are left alone.
func (r *blogRepository) Update(ctx context.Context, b *Blog) error {
	tags, links, images, video, err := jsonColumns(b)
	if err != nil {
		return fmt.Errorf("marshaling blog: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE blogs SET title = ?, slug = ?, content = ?, summary = ?, tags = ?,
		        affiliate_links = ?, images = ?, video = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		b.Title, b.Slug, b.Content, b.Summary, tags,
		links, images, video, b.Status, b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating blog: %w", err)
	}
	return nil
}

// FindByID retrieves a blog by ID, deleted or not.
func (r *blogRepository) FindByID(ctx context.Context, id string) (*Blog, error) {
	b, err := scanBlog(r.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Blog not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying blog by id: %w", err)
	}
	return b, nil
}

// FindBySlug retrieves a blog by slug, deleted or not.
func (r *blogRepository) FindBySlug(ctx context.Context, slug string) (*Blog, error) {
	b, err := scanBlog(r.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Blog not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying blog by slug: %w", err)
	}
	return b, nil
}

// SlugExists returns true if another blog already uses slug.
func (r *blogRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blogs WHERE slug = ? AND id <> ?)`,
		slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking slug existence: %w", err)
	}
	return exists, nil
}

// ListAll returns every blog, newest first.
func (r *blogRepository) ListAll(ctx context.Context) ([]Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing blogs: %w", err)
	}
	defer rows.Close()
	return scanBlogRows(rows)
}

// ListPublic returns a page of active, non-deleted blogs, newest first, with
// the total count.
func (r *blogRepository) ListPublic(ctx context.Context, limit, offset int) ([]Blog, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs WHERE status = 'active' AND deleted = FALSE`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting public blogs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs
		 WHERE status = 'active' AND deleted = FALSE
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing public blogs: %w", err)
	}
	defer rows.Close()

	blogs, err := scanBlogRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

func scanBlogRows(rows *sql.Rows) ([]Blog, error) {
	blogs := []Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning blog: %w", err)
		}
		blogs = append(blogs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating blogs: %w", err)
	}
	return blogs, nil
}

// UpdateStatus sets a blog's status.
func (r *blogRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating blog status: %w", err)
	}
	return nil
}

// MarkDeleted flags a blog deleted and inactive ahead of the cascade.
func (r *blogRepository) MarkDeleted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET deleted = TRUE, status = 'inactive' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking blog deleted: %w", err)
	}
	return nil
}

// Delete removes the blog row.
func (r *blogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting blog: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("Blog not found")
	}
	return nil
}

// Exists reports whether a non-deleted blog has the given ID.
func (r *blogRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blogs WHERE id = ? AND deleted = FALSE)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking blog existence: %w", err)
	}
	return exists, nil
}

// IncrementViews adds one to view_count.
func (r *blogRepository) IncrementViews(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET view_count = view_count + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("incrementing views: %w", err)
	}
	return nil
}

// AdjustCommentCount adds delta to comment_count, never going below zero.
func (r *blogRepository) AdjustCommentCount(ctx context.Context, id string, delta int) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET comment_count = GREATEST(comment_count + ?, 0) WHERE id = ?`,
		delta, id); err != nil {
		return fmt.Errorf("adjusting comment count: %w", err)
	}
	return nil
}

// SetAverageRating stores a recomputed rating average.
func (r *blogRepository) SetAverageRating(ctx context.Context, id string, avg float64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET average_rating = ? WHERE id = ?`, avg, id); err != nil {
		return fmt.Errorf("setting average rating: %w", err)
	}
	return nil
}

// RecordAffiliateClick increments one link's counter inside a transaction.
func (r *blogRepository) RecordAffiliateClick(ctx context.Context, id string, index int) (*AffiliateLink, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var linksJSON []byte
	err = tx.QueryRowContext(ctx,
		`SELECT affiliate_links FROM blogs WHERE id = ? FOR UPDATE`, id,
	).Scan(&linksJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Blog not found")
	}
	if err != nil {
		return nil, fmt.Errorf("locking affiliate links: %w", err)
	}

	var links []AffiliateLink
	if err := unmarshalOptional(linksJSON, &links); err != nil {
		return nil, fmt.Errorf("unmarshaling affiliate links: %w", err)
	}
	if index < 0 || index >= len(links) {
		return nil, apperror.NewNotFound("Affiliate link not found")
	}
	links[index].ClickCount++

	updated, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("marshaling affiliate links: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE blogs SET affiliate_links = ?, click_count = click_count + 1 WHERE id = ?`,
		updated, id); err != nil {
		return nil, fmt.Errorf("recording affiliate click: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing affiliate click: %w", err)
	}
	link := links[index]
	return &link, nil
}
