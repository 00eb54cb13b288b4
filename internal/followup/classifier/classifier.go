// internal/followup/classifier/classifier.go
package classifier

import (
	"fmt"
	"time"

	"leadfollow/internal/models"
)

// Offsets past StandardFollowUpDays at which severity escalates.
const (
	MediumOffsetDays = 3
	HighOffsetDays   = 7
)

const newProspectMessage = "New prospect detected - consider reaching out for initial contact"

// Classify decides whether prospect needs attention.
//
// It returns nil when any follow-up is still pending or when the last contact is
// more recent than settings.StandardFollowUpDays. A prospect never contacted
// yields a medium new_prospect alert. Otherwise the day count since last contact,
// measured between local midnights in now's location, picks the bucket:
// std+7 and above is high, std+3 and above is medium, the rest is low.
// settings is assumed validated (StandardFollowUpDays >= 1).
func Classify(prospect models.Prospect, settings models.FollowUpSettings, followUps []models.FollowUp, now time.Time) *models.Alert {
	for _, f := range followUps {
		if !f.Completed {
			return nil
		}
	}

	if prospect.LastContactDate == nil {
		return &models.Alert{
			Type:                 models.AlertTypeNewProspect,
			Priority:             models.PriorityMedium,
			Prospect:             prospect,
			Message:              newProspectMessage,
			DaysSinceLastContact: 0,
		}
	}

	days := DaysBetween(*prospect.LastContactDate, now)
	std := settings.StandardFollowUpDays
	if days < std {
		return nil
	}

	alert := &models.Alert{
		Prospect:             prospect,
		DaysSinceLastContact: days,
	}
	switch {
	case days >= std+HighOffsetDays:
		alert.Type = models.AlertTypeOverdueFollowUp
		alert.Priority = models.PriorityHigh
		alert.Message = fmt.Sprintf("Urgent: No contact for %d days - immediate follow-up needed", days)
	case days >= std+MediumOffsetDays:
		alert.Type = models.AlertTypeOverdueFollowUp
		alert.Priority = models.PriorityMedium
		alert.Message = fmt.Sprintf("Overdue: Follow-up needed (%d days since last contact)", days)
	default:
		alert.Type = models.AlertTypeFollowUpNeeded
		alert.Priority = models.PriorityLow
		alert.Message = fmt.Sprintf("Follow-up recommended (%d days since last contact)", days)
	}
	return alert
}
