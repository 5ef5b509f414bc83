// Package ratings implements the ratings widget: 1 to 5 star visitor ratings
// whose running average is stored on the blog.
package ratings

import "time"

const (
	minRating = 1
	maxRating = 5
)

// Rating is a single visitor rating of a blog.
type Rating struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blogId"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest is the public rating payload. Rating is a float so that
// fractional input can be rejected instead of silently truncated.
type CreateRequest struct {
	BlogID string   `json:"blogId"`
	Rating *float64 `json:"rating"`
}

// Pagination describes a page of results.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of ratings with the average over the whole filter.
type Page struct {
	Ratings       []Rating   `json:"ratings"`
	AverageRating float64    `json:"averageRating"`
	Pagination    Pagination `json:"pagination"`
}
