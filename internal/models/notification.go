// internal/models/notification.go
package models

import "time"

// Notification is one user-facing reminder raised by the due-date scheduler.
// Tag lets the receiving platform coalesce repeats of the same item.
type Notification struct {
	UserID             string           `json:"userId"`
	FollowUpID         string           `json:"followUpId"`
	Kind               NotificationKind `json:"kind"`
	Title              string           `json:"title"`
	Body               string           `json:"body"`
	Tag                string           `json:"tag"`
	RequireInteraction bool             `json:"requireInteraction"`
	CreatedAt          time.Time        `json:"createdAt"`
}

type NotificationKind string

const (
	NotificationOverdue  NotificationKind = "overdue"
	NotificationDueToday NotificationKind = "due_today"
)
