// Package audit records significant admin mutations (blog changes, expert
// form replies, comment moderation, password resets) in the audit_log table
// and serves them as the dashboard activity feed.
//
// Writing an entry never fails the operation that triggered it.
package audit

import "time"

// --- Action Constants ---
// Each action string follows the pattern "resource.verb" for consistent
// filtering and display grouping.

const (
	ActionBlogCreated       = "blog.created"
	ActionBlogUpdated       = "blog.updated"
	ActionBlogStatusChanged = "blog.status_changed"
	ActionBlogDeleted       = "blog.deleted"

	ActionExpertFormReplied = "expert_form.replied"
	ActionExpertFormDeleted = "expert_form.deleted"

	ActionCommentDeleted = "comment.deleted"

	ActionPasswordReset = "auth.password_reset"
)

// AuditEntry represents a single recorded action in the audit log. The
// Details map holds action-specific metadata (e.g., old/new status).
type AuditEntry struct {
	ID         int64          `json:"id"`
	UserID     string         `json:"userId"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType,omitempty"`
	EntityID   string         `json:"entityId,omitempty"`
	EntityName string         `json:"entityName,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`

	// UserName is joined from the users table at query time.
	UserName string `json:"userName,omitempty"`
}

// ActivityPage is the response of GET /api/admin/activity.
type ActivityPage struct {
	Entries    []AuditEntry `json:"entries"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"perPage"`
	TotalPages int          `json:"totalPages"`
}
