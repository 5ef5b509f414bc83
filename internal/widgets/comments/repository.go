package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/inkwell/internal/apperror"
)

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id string) (*Comment, error)

	// List returns comments newest first, filtered by blog when blogID is
	// non-empty, plus the total count.
	List(ctx context.Context, blogID string, limit, offset int) ([]Comment, int, error)

	Delete(ctx context.Context, id string) error
	DeleteByBlog(ctx context.Context, blogID string) error
}

// commentRepository implements CommentRepository with MariaDB queries.
type commentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment.
func (r *commentRepository) Create(ctx context.Context, c *Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, blog_id, name, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.BlogID, c.Name, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// FindByID retrieves a comment.
func (r *commentRepository) FindByID(ctx context.Context, id string) (*Comment, error) {
	c := &Comment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, blog_id, name, content, created_at FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &c.BlogID, &c.Name, &c.Content, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Comment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying comment: %w", err)
	}
	return c, nil
}

// List returns a page of comments.
func (r *commentRepository) List(ctx context.Context, blogID string, limit, offset int) ([]Comment, int, error) {
	where, args := "", []any{}
	if blogID != "" {
		where, args = " WHERE blog_id = ?", append(args, blogID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, blog_id, name, content, created_at FROM comments`+where+
			` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.BlogID, &c.Name, &c.Content, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, total, nil
}

// Delete removes a comment.
func (r *commentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("Comment not found")
	}
	return nil
}

// DeleteByBlog removes every comment on a blog.
func (r *commentRepository) DeleteByBlog(ctx context.Context, blogID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE blog_id = ?`, blogID); err != nil {
		return fmt.Errorf("deleting blog comments: %w", err)
	}
	return nil
}
