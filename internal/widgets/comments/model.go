// Package comments implements the comments widget: anonymous visitor comments
// on public blogs, listed newest first, with admin moderation.
package comments

import "time"

// Comment is a visitor comment on a blog.
type Comment struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blogId"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest is the public comment payload.
type CreateRequest struct {
	BlogID  string `json:"blogId"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Pagination describes a page of results.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of comments.
type Page struct {
	Comments   []Comment  `json:"comments"`
	Pagination Pagination `json:"pagination"`
}
