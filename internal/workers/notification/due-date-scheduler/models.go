// internal/workers/notification/due-date-scheduler/models.go
package duedatescheduler

import (
	"context"

	"leadfollow/internal/models"
)

type State int32

const (
	StateStopped State = iota
	StateArmed
	StateChecking
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateChecking:
		return "checking"
	default:
		return "stopped"
	}
}

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Notifier delivers notifications to a user's devices.
type Notifier interface {
	Supported() bool
	Permission(ctx context.Context, userID string) (Permission, error)
	// RequestPermission asks the user's devices to prompt and returns the
	// permission as currently recorded.
	RequestPermission(ctx context.Context, userID string) (Permission, error)
	// Show reports false without error when a notification with the same tag
	// was delivered recently and this one was folded into it.
	Show(ctx context.Context, n models.Notification) (bool, error)
}

type SettingsProvider interface {
	GetSettings(ctx context.Context, userID string) (*models.FollowUpSettings, error)
}

type PendingFollowUps interface {
	GetPendingFollowUpsByUser(ctx context.Context, userID string) ([]models.FollowUpWithProspect, error)
}

// Scheduler notification titles and bodies.
const (
	overdueTitlePrefix  = "Overdue Follow-up: "
	overdueBody         = "This follow-up is overdue and needs your attention."
	dueTodayTitlePrefix = "Follow-up Due Today: "
	dueTodayBody        = "You have a follow-up scheduled for today."
	unknownProspectName = "Unknown"
	tagPrefix           = "followup-"
)
