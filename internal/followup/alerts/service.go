// internal/followup/alerts/service.go
package alerts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"leadfollow/internal/common/database"
	"leadfollow/internal/common/errors"
	"leadfollow/internal/common/logger"
	"leadfollow/internal/common/metrics"
	"leadfollow/internal/common/observability"
	"leadfollow/internal/followup/classifier"
	"leadfollow/internal/models"
)

// SettingsProvider returns materialised settings for a user.
type SettingsProvider interface {
	GetSettings(ctx context.Context, userID string) (*models.FollowUpSettings, error)
}

type Config struct {
	AutoTaskDueInDays int
	SummaryTopN       int
}

// Service aggregates per-prospect classifications into a user's alert list.
type Service struct {
	config    *Config
	settings  SettingsProvider
	prospects models.ProspectRepository
	followUps models.FollowUpRepository
	tx        database.Transactor
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

func NewService(
	config *Config,
	settings SettingsProvider,
	prospects models.ProspectRepository,
	followUps models.FollowUpRepository,
	tx database.Transactor,
	obs *observability.Observability,
	log logger.Logger,
) *Service {
	return &Service{
		config:    config,
		settings:  settings,
		prospects: prospects,
		followUps: followUps,
		tx:        tx,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "followup-alerts"}),
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetAlerts classifies every prospect of userID and returns the alerts sorted
// high, medium, low. A prospect whose follow-ups cannot be loaded is logged and
// left out. It performs no writes apart from materialising default settings.
func (s *Service) GetAlerts(ctx context.Context, userID string) (alerts []models.Alert, err error) {
	start := time.Now()
	defer func() {
		s.obs.RecordOperation(ctx, "get_alerts", time.Since(start), err)
	}()

	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	prospects, err := s.prospects.GetProspectsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	alerts = make([]models.Alert, 0, len(prospects))
	for _, prospect := range prospects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		followUps, fErr := s.followUps.GetFollowUpsByProspect(ctx, prospect.ID)
		if fErr != nil {
			metrics.AlertProspectsSkipped.Inc()
			s.logger.Warn("skipping prospect, follow-ups unavailable", map[string]interface{}{
				"userId":     userID,
				"prospectId": prospect.ID,
				"error":      fErr,
			})
			continue
		}

		if alert := classifier.Classify(prospect, *settings, followUps, now); alert != nil {
			alerts = append(alerts, *alert)
			metrics.AlertsGenerated.WithLabelValues(string(alert.Type), string(alert.Priority)).Inc()
		}
	}

	SortAlerts(alerts)
	s.obs.RecordAlertCount(ctx, len(alerts))
	return alerts, nil
}

// SortAlerts orders alerts by priority, highest first, keeping the input order
// among equal priorities.
func SortAlerts(alerts []models.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority.Ordinal() > alerts[j].Priority.Ordinal()
	})
}

// AutoCreateFollowUpTasks turns follow_up_needed and overdue_follow_up alerts into
// email follow-ups due one calendar day from now. Each insert runs in its own
// transaction after locking the prospect row and re-checking for a pending
// follow-up, so repeated or concurrent calls create at most one task per prospect.
func (s *Service) AutoCreateFollowUpTasks(ctx context.Context, userID string) (created int, err error) {
	start := time.Now()
	defer func() {
		s.obs.RecordOperation(ctx, "auto_create_tasks", time.Since(start), err)
	}()

	alerts, err := s.GetAlerts(ctx, userID)
	if err != nil {
		return 0, err
	}

	for _, alert := range alerts {
		if !alert.NeedsTask() {
			continue
		}

		ok, err := s.createIfNonePending(ctx, alert)
		if err != nil {
			s.logger.Error("auto-create follow-up failed", map[string]interface{}{
				"userId":     userID,
				"prospectId": alert.Prospect.ID,
				"created":    created,
				"error":      err,
			})
			return created, err
		}
		if ok {
			created++
			metrics.AutoCreatedTasks.WithLabelValues("created").Inc()
		} else {
			metrics.AutoCreatedTasks.WithLabelValues("skipped").Inc()
		}
	}

	s.logger.Info("auto-create finished", map[string]interface{}{
		"userId":       userID,
		"tasksCreated": created,
	})
	return created, nil
}

func (s *Service) createIfNonePending(ctx context.Context, alert models.Alert) (bool, error) {
	var created bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.prospects.LockProspect(ctx, alert.Prospect.ID); err != nil {
			return err
		}

		pending, err := s.followUps.HasPendingFollowUp(ctx, alert.Prospect.ID)
		if err != nil {
			return err
		}
		if pending {
			return nil
		}

		notes := fmt.Sprintf("Follow up with %s: %s", alert.Prospect.Name, alert.Message)
		priority := alert.Priority
		followUp := &models.FollowUp{
			ProspectID:  alert.Prospect.ID,
			DueDate:     classifier.AddCalendarDays(s.now(), s.config.AutoTaskDueInDays),
			Type:        models.FollowUpTypeEmail,
			Notes:       &notes,
			Completed:   false,
			Priority:    &priority,
			AutoCreated: true,
		}
		if err := s.followUps.CreateFollowUp(ctx, followUp); err != nil {
			return err
		}
		created = true
		return nil
	})

	// the partial unique index caught a concurrent insert
	if errors.HasCode(err, errors.ErrCodeDuplicateFollowUp) {
		return false, nil
	}
	return created, err
}

// GetNotificationSummary counts alerts by priority and type and returns the top N.
func (s *Service) GetNotificationSummary(ctx context.Context, userID string) (*models.NotificationSummary, error) {
	alerts, err := s.GetAlerts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(alerts, s.config.SummaryTopN), nil
}

// Summarize expects alerts already sorted.
func Summarize(alerts []models.Alert, topN int) *models.NotificationSummary {
	summary := &models.NotificationSummary{TotalAlerts: len(alerts)}
	for _, a := range alerts {
		switch a.Priority {
		case models.PriorityHigh:
			summary.HighPriorityCount++
		case models.PriorityMedium:
			summary.MediumPriorityCount++
		case models.PriorityLow:
			summary.LowPriorityCount++
		}
		switch a.Type {
		case models.AlertTypeNewProspect:
			summary.NewProspectsCount++
		case models.AlertTypeOverdueFollowUp:
			summary.OverdueFollowUpsCount++
		}
	}

	if topN > len(alerts) {
		topN = len(alerts)
	}
	if topN < 0 {
		topN = 0
	}
	summary.Alerts = append(make([]models.Alert, 0, topN), alerts[:topN]...)
	return summary
}
