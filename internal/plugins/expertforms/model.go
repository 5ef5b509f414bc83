// Package expertforms handles "ask an expert" submissions from the public
// site: intake with confirmation mail, admin triage, and emailed replies.
package expertforms

import "time"

// ExpertForm is a visitor question awaiting an expert reply.
type ExpertForm struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Question  string     `json:"question"`
	Topic     string     `json:"topic"`
	IsHandled bool       `json:"isHandled"`
	HandledBy *string    `json:"handledBy,omitempty"`
	HandledAt *time.Time `json:"handledAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Replies   []Reply    `json:"replies"`
}

// Reply is an admin answer to a form.
type Reply struct {
	ID        string    `json:"id"`
	FormID    string    `json:"formId"`
	Message   string    `json:"message"`
	RepliedBy *string   `json:"repliedBy,omitempty"`
	RepliedAt time.Time `json:"repliedAt"`
}

// SubmitRequest is the public intake payload.
type SubmitRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Question string `json:"question"`
	Topic    string `json:"topic"`
}

// ReplyRequest is the admin reply payload.
type ReplyRequest struct {
	Message string `json:"message"`
}
