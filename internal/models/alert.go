// internal/models/alert.go
package models

type AlertType string

const (
	AlertTypeNewProspect     AlertType = "new_prospect"
	AlertTypeFollowUpNeeded  AlertType = "follow_up_needed"
	AlertTypeOverdueFollowUp AlertType = "overdue_follow_up"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Ordinal ranks priorities for sorting: high 3, medium 2, low 1, unknown 0.
func (p Priority) Ordinal() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Alert is a computed signal that a prospect needs attention. Not persisted.
type Alert struct {
	Type                 AlertType `json:"type"`
	Priority             Priority  `json:"priority"`
	Prospect             Prospect  `json:"prospect"`
	Message              string    `json:"message"`
	DaysSinceLastContact int       `json:"daysSinceLastContact"`
	DueDate              string    `json:"dueDate,omitempty"`
}

// NeedsTask reports whether the auto-create path turns this alert into a follow-up.
func (a Alert) NeedsTask() bool {
	return a.Type == AlertTypeFollowUpNeeded || a.Type == AlertTypeOverdueFollowUp
}

// NotificationSummary is the dashboard roll-up of a user's alerts.
type NotificationSummary struct {
	TotalAlerts           int     `json:"totalAlerts"`
	HighPriorityCount     int     `json:"highPriorityCount"`
	MediumPriorityCount   int     `json:"mediumPriorityCount"`
	LowPriorityCount      int     `json:"lowPriorityCount"`
	NewProspectsCount     int     `json:"newProspectsCount"`
	OverdueFollowUpsCount int     `json:"overdueFollowUpsCount"`
	Alerts                []Alert `json:"alerts"`
}
