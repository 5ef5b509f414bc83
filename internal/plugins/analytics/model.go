// Package analytics records visitor events against blogs and aggregates them
// for the admin dashboard. Events are append-only; rows only disappear when
// their blog is deleted.
package analytics

import "time"

// Event actions.
const (
	ActionView       = "view"
	ActionClick      = "click"
	ActionFormSubmit = "form_submit"
	ActionPurchase   = "purchase"
	ActionVisit      = "visit"
	ActionCreate     = "create"
)

// validActions is the closed set of recordable actions.
var validActions = map[string]bool{
	ActionView:       true,
	ActionClick:      true,
	ActionFormSubmit: true,
	ActionPurchase:   true,
	ActionVisit:      true,
	ActionCreate:     true,
}

// Column bounds of the analytics_events table.
const (
	maxBlogIDLen       = 36
	maxAffiliateURLLen = 2048
	maxUserAgentLen    = 512
	maxRevenue         = 9999999999.99
)

// Event is one tracked action.
type Event struct {
	ID           int64     `json:"id"`
	BlogID       *string   `json:"blogId,omitempty"`
	Action       string    `json:"action"`
	AffiliateURL *string   `json:"affiliateUrl,omitempty"`
	Revenue      float64   `json:"revenue"`
	IP           string    `json:"ip"`
	UserAgent    string    `json:"userAgent"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ActionSummary is one group of an aggregation.
type ActionSummary struct {
	Action       string  `json:"action"`
	TotalCount   int64   `json:"totalCount"`
	TotalRevenue float64 `json:"totalRevenue"`
}

// TrackRequest is the public tracking payload.
type TrackRequest struct {
	BlogID       string   `json:"blogId"`
	Action       string   `json:"action"`
	AffiliateURL string   `json:"affiliateUrl"`
	Revenue      *float64 `json:"revenue"`
}
