// internal/followup/classifier/classifier_test.go
package classifier

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfollow/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC)

func contactedDaysAgo(days int) models.Prospect {
	at := testNow.AddDate(0, 0, -days)
	return models.Prospect{ID: "p-1", UserID: "u-1", Name: "Ada", LastContactDate: &at}
}

func settingsWithStd(std int) models.FollowUpSettings {
	s := models.DefaultFollowUpSettings("u-1")
	s.StandardFollowUpDays = std
	return s
}

// ==========================
// Core Functionality Tests
// ==========================

func TestClassify_PriorityBoundaries(t *testing.T) {
	tests := []struct {
		days         int
		wantNil      bool
		wantPriority models.Priority
		wantType     models.AlertType
	}{
		{days: 11, wantPriority: models.PriorityHigh, wantType: models.AlertTypeOverdueFollowUp},
		{days: 10, wantPriority: models.PriorityHigh, wantType: models.AlertTypeOverdueFollowUp},
		{days: 9, wantPriority: models.PriorityMedium, wantType: models.AlertTypeOverdueFollowUp},
		{days: 7, wantPriority: models.PriorityMedium, wantType: models.AlertTypeOverdueFollowUp},
		{days: 6, wantPriority: models.PriorityLow, wantType: models.AlertTypeFollowUpNeeded},
		{days: 4, wantPriority: models.PriorityLow, wantType: models.AlertTypeFollowUpNeeded},
		{days: 3, wantNil: true},
		{days: 0, wantNil: true},
		{days: -5, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d days", tt.days), func(t *testing.T) {
			alert := Classify(contactedDaysAgo(tt.days), settingsWithStd(4), nil, testNow)
			if tt.wantNil {
				assert.Nil(t, alert)
				return
			}
			require.NotNil(t, alert)
			assert.Equal(t, tt.wantPriority, alert.Priority)
			assert.Equal(t, tt.wantType, alert.Type)
			assert.Equal(t, tt.days, alert.DaysSinceLastContact)
		})
	}
}

func TestClassify_Messages(t *testing.T) {
	high := Classify(contactedDaysAgo(12), settingsWithStd(4), nil, testNow)
	require.NotNil(t, high)
	assert.Equal(t, "Urgent: No contact for 12 days - immediate follow-up needed", high.Message)

	medium := Classify(contactedDaysAgo(8), settingsWithStd(4), nil, testNow)
	require.NotNil(t, medium)
	assert.Equal(t, "Overdue: Follow-up needed (8 days since last contact)", medium.Message)

	low := Classify(contactedDaysAgo(5), settingsWithStd(4), nil, testNow)
	require.NotNil(t, low)
	assert.Equal(t, "Follow-up recommended (5 days since last contact)", low.Message)
}

func TestClassify_NeverContacted(t *testing.T) {
	prospect := models.Prospect{ID: "p-2", Name: "Grace"}

	for _, std := range []int{1, 4, 30} {
		alert := Classify(prospect, settingsWithStd(std), nil, testNow)
		require.NotNil(t, alert)
		assert.Equal(t, models.AlertTypeNewProspect, alert.Type)
		assert.Equal(t, models.PriorityMedium, alert.Priority)
		assert.Equal(t, 0, alert.DaysSinceLastContact)
		assert.Equal(t, "New prospect detected - consider reaching out for initial contact", alert.Message)
		assert.Equal(t, "p-2", alert.Prospect.ID)
	}
}

func TestClassify_PendingFollowUpSuppresses(t *testing.T) {
	pending := []models.FollowUp{
		{ID: "f-1", Completed: true},
		{ID: "f-2", Completed: false},
	}

	assert.Nil(t, Classify(contactedDaysAgo(40), settingsWithStd(4), pending, testNow))
	assert.Nil(t, Classify(models.Prospect{ID: "p-3"}, settingsWithStd(4), pending, testNow))
}

func TestClassify_CompletedFollowUpsDoNotSuppress(t *testing.T) {
	done := []models.FollowUp{{ID: "f-1", Completed: true}}

	alert := Classify(contactedDaysAgo(5), settingsWithStd(4), done, testNow)
	require.NotNil(t, alert)
	assert.Equal(t, models.PriorityLow, alert.Priority)
}

func TestClassify_UnusedPriorityFieldsIgnored(t *testing.T) {
	s := settingsWithStd(4)
	s.HighPriorityDays, s.MediumPriorityDays, s.LowPriorityDays = 100, 100, 100

	alert := Classify(contactedDaysAgo(11), s, nil, testNow)
	require.NotNil(t, alert)
	assert.Equal(t, models.PriorityHigh, alert.Priority)
}

func TestClassify_CalendarDayTruncation(t *testing.T) {
	now := time.Date(2024, 5, 20, 0, 5, 0, 0, time.UTC)
	// 4 calendar days but only 3 days and 10 minutes elapsed
	last := time.Date(2024, 5, 16, 23, 55, 0, 0, time.UTC)
	prospect := models.Prospect{ID: "p-1", LastContactDate: &last}

	alert := Classify(prospect, settingsWithStd(4), nil, now)
	require.NotNil(t, alert)
	assert.Equal(t, 4, alert.DaysSinceLastContact)
}

// ==========================
// Scenario Tests
// ==========================

func TestClassify_Scenarios(t *testing.T) {
	t.Run("A: twelve days silent is urgent", func(t *testing.T) {
		alert := Classify(contactedDaysAgo(12), models.DefaultFollowUpSettings("u-1"), nil, testNow)
		require.NotNil(t, alert)
		assert.Equal(t, models.AlertTypeOverdueFollowUp, alert.Type)
		assert.Equal(t, models.PriorityHigh, alert.Priority)
		assert.Equal(t, 12, alert.DaysSinceLastContact)
	})

	t.Run("B: never contacted", func(t *testing.T) {
		alert := Classify(models.Prospect{ID: "b"}, models.DefaultFollowUpSettings("u-1"), nil, testNow)
		require.NotNil(t, alert)
		assert.Equal(t, models.AlertTypeNewProspect, alert.Type)
		assert.Equal(t, models.PriorityMedium, alert.Priority)
		assert.Equal(t, 0, alert.DaysSinceLastContact)
	})

	t.Run("C: two days is current", func(t *testing.T) {
		assert.Nil(t, Classify(contactedDaysAgo(2), models.DefaultFollowUpSettings("u-1"), nil, testNow))
	})
}
