// internal/models/followup.go
package models

import (
	"context"
	"time"
)

type FollowUpType string

const (
	FollowUpTypeEmail   FollowUpType = "email"
	FollowUpTypeCall    FollowUpType = "call"
	FollowUpTypeMeeting FollowUpType = "meeting"
)

func (t FollowUpType) Valid() bool {
	switch t {
	case FollowUpTypeEmail, FollowUpTypeCall, FollowUpTypeMeeting:
		return true
	}
	return false
}

// FollowUp is a scheduled task to re-engage a prospect.
type FollowUp struct {
	ID            string       `json:"id" db:"id"`
	ProspectID    string       `json:"prospectId" db:"prospect_id"`
	DueDate       time.Time    `json:"dueDate" db:"due_date"`
	Type          FollowUpType `json:"type" db:"type"`
	Notes         *string      `json:"notes" db:"notes"`
	Completed     bool         `json:"completed" db:"completed"`
	CompletedDate *time.Time   `json:"completedDate" db:"completed_date"`
	Priority      *Priority    `json:"priority,omitempty" db:"priority"`
	AutoCreated   bool         `json:"autoCreated" db:"auto_created"`
}

// FollowUpWithProspect is a follow-up joined with its prospect, as listed on
// the follow-ups page and scanned by the due-date scheduler.
type FollowUpWithProspect struct {
	FollowUp
	Prospect Prospect `json:"prospect"`
}

type FollowUpPatch struct {
	DueDate   *time.Time    `json:"dueDate,omitempty"`
	Type      *FollowUpType `json:"type,omitempty"`
	Notes     *string       `json:"notes,omitempty"`
	Completed *bool         `json:"completed,omitempty"`
}

// Apply copies the non-nil fields onto f. Completing stamps CompletedDate with now;
// reopening clears it.
func (p FollowUpPatch) Apply(f *FollowUp, now time.Time) {
	if p.DueDate != nil {
		f.DueDate = *p.DueDate
	}
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.Notes != nil {
		f.Notes = p.Notes
	}
	if p.Completed != nil {
		switch {
		case *p.Completed && !f.Completed:
			f.Completed = true
			f.CompletedDate = &now
		case !*p.Completed:
			f.Completed = false
			f.CompletedDate = nil
		}
	}
}

type FollowUpRepository interface {
	GetFollowUp(ctx context.Context, id string) (*FollowUp, error)
	GetFollowUpsByProspect(ctx context.Context, prospectID string) ([]FollowUp, error)
	// GetPendingFollowUpsByUser returns incomplete follow-ups ordered by due date.
	GetPendingFollowUpsByUser(ctx context.Context, userID string) ([]FollowUpWithProspect, error)
	HasPendingFollowUp(ctx context.Context, prospectID string) (bool, error)
	CreateFollowUp(ctx context.Context, f *FollowUp) error
	UpdateFollowUp(ctx context.Context, f *FollowUp) error
	DeleteFollowUp(ctx context.Context, id string) error
}
