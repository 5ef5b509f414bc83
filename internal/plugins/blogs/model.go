// Package blogs is the content store: admin CRUD over blog posts with their
// media, plus the public read API that feeds view and click analytics.
package blogs

import (
	"time"
)

// Blog statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// AffiliateLink is an outbound link tracked per click.
type AffiliateLink struct {
	Label      string `json:"label"`
	URL        string `json:"url"`
	ClickCount int64  `json:"clickCount"`
}

// MediaRef points a blog at an uploaded media file.
type MediaRef struct {
	MediaID string `json:"mediaId"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Blog is a content item.
type Blog struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Content        string          `json:"content"`
	Summary        string          `json:"summary"`
	Tags           []string        `json:"tags"`
	AuthorID       *string         `json:"authorId,omitempty"`
	AffiliateLinks []AffiliateLink `json:"affiliateLinks"`
	Images         []MediaRef      `json:"images"`
	Video          *MediaRef       `json:"video"`
	ViewCount      int64           `json:"viewCount"`
	ClickCount     int64           `json:"clickCount"`
	CommentCount   int             `json:"commentCount"`
	AverageRating  float64         `json:"averageRating"`
	Deleted        bool            `json:"deleted"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IsPublic reports whether the blog is visible on the customer site.
func (b *Blog) IsPublic() bool {
	return b.Status == StatusActive && !b.Deleted
}

// mediaIDs returns every media file the blog references.
func (b *Blog) mediaIDs() []string {
	var ids []string
	for _, img := range b.Images {
		if img.MediaID != "" {
			ids = append(ids, img.MediaID)
		}
	}
	if b.Video != nil && b.Video.MediaID != "" {
		ids = append(ids, b.Video.MediaID)
	}
	return ids
}

// Upload is a file received with a create or update form.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

// CreateInput holds the parsed create form.
type CreateInput struct {
	Title          string
	Content        string
	Summary        string
	Tags           []string
	AffiliateLinks string // JSON array of {label,url}.
	Status         string
	Images         []Upload
	Captions       []string
	Video          *Upload
	VideoCaption   string
	AuthorID       string
}

// UpdateInput holds the parsed update form. Nil fields were absent.
type UpdateInput struct {
	Title          *string
	Content        *string
	Summary        *string
	Tags           *[]string
	AffiliateLinks *string
	Status         *string
	Images         []Upload // Non-empty replaces every image.
	Captions       []string
	Video          *Upload
	VideoCaption   string
}

// Visitor identifies the client behind a public request.
type Visitor struct {
	IP        string
	UserAgent string
}

// ListOptions holds pagination for the public list.
type ListOptions struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET value for the current page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Pagination describes a page of results.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// PublicPage is one page of the public blog list.
type PublicPage struct {
	Blogs      []Blog     `json:"blogs"`
	Pagination Pagination `json:"pagination"`
}
