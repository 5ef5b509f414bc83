// Package notifications stores per-admin notifications and pushes them live
// over Redis pub/sub to WebSocket subscribers.
package notifications

import "time"

// channelPrefix namespaces the per-user Redis pub/sub channels.
const channelPrefix = "notifications:"

// Notification is a message addressed to one admin.
type Notification struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ExpertFormID *string   `json:"expertFormId,omitempty"`
	Message      string    `json:"message"`
	IsRead       bool      `json:"isRead"`
	CreatedAt    time.Time `json:"createdAt"`
}

func channelFor(userID string) string {
	return channelPrefix + userID
}
