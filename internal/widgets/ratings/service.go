package ratings

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// BlogRater is the slice of the blog store ratings need.
type BlogRater interface {
	Exists(ctx context.Context, id string) (bool, error)
	SetAverageRating(ctx context.Context, id string, avg float64) error
}

// RatingService handles business logic for ratings.
type RatingService interface {
	Create(ctx context.Context, req CreateRequest) (*Rating, error)
	List(ctx context.Context, blogID string, page, limit int) (*Page, error)

	// PurgeBlog removes a blog's ratings during the blog delete cascade.
	PurgeBlog(ctx context.Context, blogID string) error
}

// ratingService implements RatingService.
type ratingService struct {
	repo  RatingRepository
	blogs BlogRater
	now   func() time.Time
}

// NewRatingService creates a new rating service.
func NewRatingService(repo RatingRepository, blogs BlogRater) RatingService {
	return &ratingService{repo: repo, blogs: blogs, now: time.Now}
}

// Create stores a rating and refreshes the blog's average.
func (s *ratingService) Create(ctx context.Context, req CreateRequest) (*Rating, error) {
	blogID := strings.TrimSpace(req.BlogID)
	if blogID == "" || req.Rating == nil {
		return nil, apperror.NewBadRequest("blogId and rating are required")
	}
	value := *req.Rating
	if value != math.Trunc(value) || value < minRating || value > maxRating {
		return nil, apperror.NewBadRequest("Rating must be between 1 and 5")
	}

	if err := s.requireBlog(ctx, blogID); err != nil {
		return nil, err
	}

	rating := &Rating{
		ID:        uuid.New().String(),
		BlogID:    blogID,
		Rating:    int(value),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, rating); err != nil {
		return nil, apperror.NewInternal(err)
	}

	avg, err := s.repo.Average(ctx, blogID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if err := s.blogs.SetAverageRating(ctx, blogID, round2(avg)); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return rating, nil
}

// List returns a page of ratings with the overall average.
func (s *ratingService) List(ctx context.Context, blogID string, page, limit int) (*Page, error) {
	blogID = strings.TrimSpace(blogID)
	if blogID != "" {
		if err := s.requireBlog(ctx, blogID); err != nil {
			return nil, err
		}
	}

	ratings, total, err := s.repo.List(ctx, blogID, limit, (page-1)*limit)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	avg, err := s.repo.Average(ctx, blogID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	return &Page{
		Ratings:       ratings,
		AverageRating: round2(avg),
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// PurgeBlog deletes every rating of a blog.
func (s *ratingService) PurgeBlog(ctx context.Context, blogID string) error {
	return s.repo.DeleteByBlog(ctx, blogID)
}

func (s *ratingService) requireBlog(ctx context.Context, blogID string) error {
	exists, err := s.blogs.Exists(ctx, blogID)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !exists {
		return apperror.NewNotFound("Blog not found")
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
