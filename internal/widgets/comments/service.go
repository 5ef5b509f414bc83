package comments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/inkwell/internal/apperror"
	"github.com/keyxmakerx/inkwell/internal/plugins/audit"
	"github.com/keyxmakerx/inkwell/internal/sanitize"
)

const (
	maxNameLength    = 100
	maxContentLength = 5000
)

// BlogCounter is the slice of the blog store comments need.
type BlogCounter interface {
	Exists(ctx context.Context, id string) (bool, error)
	AdjustCommentCount(ctx context.Context, id string, delta int) error
}

// CommentService handles business logic for comments.
type CommentService interface {
	Create(ctx context.Context, req CreateRequest) (*Comment, error)
	List(ctx context.Context, blogID string, page, limit int) (*Page, error)
	Delete(ctx context.Context, id, userID string) error

	// PurgeBlog removes a blog's comments during the blog delete cascade.
	PurgeBlog(ctx context.Context, blogID string) error
}

// commentService implements CommentService.
type commentService struct {
	repo  CommentRepository
	blogs BlogCounter
	audit audit.Recorder
	now   func() time.Time
}

// NewCommentService creates a new comment service.
func NewCommentService(repo CommentRepository, blogs BlogCounter, recorder audit.Recorder) CommentService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &commentService{repo: repo, blogs: blogs, audit: recorder, now: time.Now}
}

// Create stores a plain-text comment and bumps the blog's counter.
func (s *commentService) Create(ctx context.Context, req CreateRequest) (*Comment, error) {
	blogID := strings.TrimSpace(req.BlogID)
	name := sanitize.PlainText(req.Name)
	content := sanitize.PlainText(req.Content)
	if blogID == "" || name == "" || content == "" {
		return nil, apperror.NewBadRequest("blogId, name and content are required")
	}
	if len([]rune(name)) > maxNameLength {
		return nil, apperror.NewBadRequest(fmt.Sprintf("Name must be at most %d characters", maxNameLength))
	}
	if len([]rune(content)) > maxContentLength {
		return nil, apperror.NewBadRequest(fmt.Sprintf("Comment must be at most %d characters", maxContentLength))
	}

	exists, err := s.blogs.Exists(ctx, blogID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if !exists {
		return nil, apperror.NewNotFound("Blog not found")
	}

	comment := &Comment{
		ID:        uuid.New().String(),
		BlogID:    blogID,
		Name:      name,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, apperror.NewInternal(err)
	}
	if err := s.blogs.AdjustCommentCount(ctx, blogID, 1); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return comment, nil
}

// List returns a page of comments, newest first.
func (s *commentService) List(ctx context.Context, blogID string, page, limit int) (*Page, error) {
	comments, total, err := s.repo.List(ctx, strings.TrimSpace(blogID), limit, (page-1)*limit)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &Page{
		Comments: comments,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// Delete removes a comment and decrements its blog's counter.
func (s *commentService) Delete(ctx context.Context, id, userID string) error {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.blogs.AdjustCommentCount(ctx, comment.BlogID, -1); err != nil {
		slog.Warn("decrementing comment count failed",
			slog.String("blog_id", comment.BlogID),
			slog.Any("error", err),
		)
	}

	s.audit.Record(ctx, &audit.AuditEntry{
		UserID:     userID,
		Action:     audit.ActionCommentDeleted,
		EntityType: "comment",
		EntityID:   comment.ID,
		EntityName: comment.Name,
		Details:    map[string]any{"blogId": comment.BlogID},
	})
	return nil
}

// PurgeBlog deletes every comment on a blog.
func (s *commentService) PurgeBlog(ctx context.Context, blogID string) error {
	return s.repo.DeleteByBlog(ctx, blogID)
}
