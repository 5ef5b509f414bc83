package ratings

import (
	"context"
	"database/sql"
	"fmt"
)

// RatingRepository defines the data access contract for ratings.
type RatingRepository interface {
	Create(ctx context.Context, rating *Rating) error

	// List returns ratings newest first, filtered by blog when blogID is
	// non-empty, plus the total count.
	List(ctx context.Context, blogID string, limit, offset int) ([]Rating, int, error)

	// Average returns the mean rating under the same filter, 0 when empty.
	Average(ctx context.Context, blogID string) (float64, error)

	DeleteByBlog(ctx context.Context, blogID string) error
}

// ratingRepository implements RatingRepository with MariaDB queries.
type ratingRepository struct {
	db *sql.DB
}

// NewRatingRepository creates a new rating repository.
func NewRatingRepository(db *sql.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Create inserts a rating.
func (r *ratingRepository) Create(ctx context.Context, rt *Rating) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ratings (id, blog_id, rating, created_at) VALUES (?, ?, ?, ?)`,
		rt.ID, rt.BlogID, rt.Rating, rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting rating: %w", err)
	}
	return nil
}

func blogFilter(blogID string) (string, []any) {
	if blogID == "" {
		return "", []any{}
	}
	return " WHERE blog_id = ?", []any{blogID}
}

// List returns a page of ratings.
func (r *ratingRepository) List(ctx context.Context, blogID string, limit, offset int) ([]Rating, int, error) {
	where, args := blogFilter(blogID)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting ratings: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, blog_id, rating, created_at FROM ratings`+where+
			` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing ratings: %w", err)
	}
	defer rows.Close()

	ratings := []Rating{}
	for rows.Next() {
		var rt Rating
		if err := rows.Scan(&rt.ID, &rt.BlogID, &rt.Rating, &rt.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning rating: %w", err)
		}
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating ratings: %w", err)
	}
	return ratings, total, nil
}

// Average computes the mean rating.
func (r *ratingRepository) Average(ctx context.Context, blogID string) (float64, error) {
	where, args := blogFilter(blogID)
	var avg float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM ratings`+where, args...,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("averaging ratings: %w", err)
	}
	return avg, nil
}

// DeleteByBlog removes every rating of a blog.
func (r *ratingRepository) DeleteByBlog(ctx context.Context, blogID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE blog_id = ?`, blogID); err != nil {
		return fmt.Errorf("deleting blog ratings: %w", err)
	}
	return nil
}
