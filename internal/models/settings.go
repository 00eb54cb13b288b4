// internal/models/settings.go
package models

import (
	"context"
	"time"
)

// FollowUpSettings holds one user's follow-up thresholds and notification flags.
// HighPriorityDays, MediumPriorityDays and LowPriorityDays are stored and editable
// but classification only reads StandardFollowUpDays.
type FollowUpSettings struct {
	UserID               string    `json:"userId" db:"user_id"`
	InitialResponseDays  int       `json:"initialResponseDays" db:"initial_response_days"`
	StandardFollowUpDays int       `json:"standardFollowUpDays" db:"standard_follow_up_days"`
	NotifyEmail          bool      `json:"notifyEmail" db:"notify_email"`
	NotifyBrowser        bool      `json:"notifyBrowser" db:"notify_browser"`
	NotifyDailyDigest    bool      `json:"notifyDailyDigest" db:"notify_daily_digest"`
	HighPriorityDays     int       `json:"highPriorityDays" db:"high_priority_days"`
	MediumPriorityDays   int       `json:"mediumPriorityDays" db:"medium_priority_days"`
	LowPriorityDays      int       `json:"lowPriorityDays" db:"low_priority_days"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultFollowUpSettings returns the built-in defaults for userID.
func DefaultFollowUpSettings(userID string) FollowUpSettings {
	return FollowUpSettings{
		UserID:               userID,
		InitialResponseDays:  2,
		StandardFollowUpDays: 4,
		NotifyEmail:          true,
		NotifyBrowser:        true,
		NotifyDailyDigest:    true,
		HighPriorityDays:     3,
		MediumPriorityDays:   1,
		LowPriorityDays:      3,
	}
}

// SettingsPatch is a validated partial settings update. Nil means unchanged.
type SettingsPatch struct {
	InitialResponseDays  *int  `json:"initialResponseDays,omitempty"`
	StandardFollowUpDays *int  `json:"standardFollowUpDays,omitempty"`
	NotifyEmail          *bool `json:"notifyEmail,omitempty"`
	NotifyBrowser        *bool `json:"notifyBrowser,omitempty"`
	NotifyDailyDigest    *bool `json:"notifyDailyDigest,omitempty"`
	HighPriorityDays     *int  `json:"highPriorityDays,omitempty"`
	MediumPriorityDays   *int  `json:"mediumPriorityDays,omitempty"`
	LowPriorityDays      *int  `json:"lowPriorityDays,omitempty"`
}

func (p SettingsPatch) Apply(s *FollowUpSettings) {
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&s.InitialResponseDays, p.InitialResponseDays)
	setInt(&s.StandardFollowUpDays, p.StandardFollowUpDays)
	setInt(&s.HighPriorityDays, p.HighPriorityDays)
	setInt(&s.MediumPriorityDays, p.MediumPriorityDays)
	setInt(&s.LowPriorityDays, p.LowPriorityDays)
	setBool(&s.NotifyEmail, p.NotifyEmail)
	setBool(&s.NotifyBrowser, p.NotifyBrowser)
	setBool(&s.NotifyDailyDigest, p.NotifyDailyDigest)
}

// SettingsRepository stores one settings row per user.
type SettingsRepository interface {
	// GetFollowUpSettings returns nil, nil when the user has no row yet.
	GetFollowUpSettings(ctx context.Context, userID string) (*FollowUpSettings, error)
	// CreateFollowUpSettings inserts s unless a row exists and returns the stored row.
	CreateFollowUpSettings(ctx context.Context, s FollowUpSettings) (*FollowUpSettings, error)
	// PatchFollowUpSettings applies the non-nil fields of patch in one atomic
	// write, so concurrent partial updates of different fields both survive.
	PatchFollowUpSettings(ctx context.Context, userID string, patch SettingsPatch) (*FollowUpSettings, error)
	// ListDigestRecipients returns settings of users with email digests enabled.
	ListDigestRecipients(ctx context.Context) ([]FollowUpSettings, error)
}
