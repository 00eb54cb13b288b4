// internal/workers/notification/daily-digest/worker.go
package dailydigest

import (
	"context"
	"time"

	"leadfollow/internal/common/aws"
	"leadfollow/internal/common/logger"
	"leadfollow/internal/common/metrics"
	"leadfollow/internal/followup/alerts"
	"leadfollow/internal/models"
)

type Recipients interface {
	ListDigestRecipients(ctx context.Context) ([]models.FollowUpSettings, error)
}

type AlertSource interface {
	GetAlerts(ctx context.Context, userID string) ([]models.Alert, error)
}

// Mailer is satisfied by *aws.SESClient.
type Mailer interface {
	Send(ctx context.Context, e aws.Email) (string, error)
}

// Worker emails each opted-in user a summary of their current alerts.
type Worker struct {
	config     *Config
	recipients Recipients
	users      models.UserRepository
	alerts     AlertSource
	mailer     Mailer
	logger     logger.Logger
	now        func() time.Time
}

func NewWorker(
	config *Config,
	recipients Recipients,
	users models.UserRepository,
	alertSource AlertSource,
	mailer Mailer,
	log logger.Logger,
) *Worker {
	return &Worker{
		config:     config,
		recipients: recipients,
		users:      users,
		alerts:     alertSource,
		mailer:     mailer,
		logger:     log.WithFields(map[string]interface{}{"component": "daily-digest"}),
		now:        time.Now,
	}
}

// Run sends a digest round every Interval until ctx is cancelled. The first
// round runs one interval after start.
func (w *Worker) Run(ctx context.Context) {
	if !w.config.Enabled || w.mailer == nil {
		w.logger.Info("daily digest disabled", nil)
		return
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.Info("daily digest worker started", map[string]interface{}{
		"interval": w.config.Interval.String(),
	})
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("daily digest worker stopped", nil)
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("digest round failed", map[string]interface{}{"error": err})
			}
		}
	}
}

// RunOnce sends one digest to every recipient with at least one alert and
// returns how many were sent. Per-user failures are logged and skipped; only a
// failure to list recipients is returned.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	recipients, err := w.recipients.ListDigestRecipients(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		ok, err := w.sendTo(ctx, r.UserID)
		if err != nil {
			metrics.DigestsSent.WithLabelValues("failed").Inc()
			w.logger.Warn("digest not sent", map[string]interface{}{
				"userId": r.UserID,
				"error":  err,
			})
			continue
		}
		if ok {
			sent++
			metrics.DigestsSent.WithLabelValues("sent").Inc()
		} else {
			metrics.DigestsSent.WithLabelValues("skipped").Inc()
		}
	}

	w.logger.Info("digest round finished", map[string]interface{}{
		"recipients": len(recipients),
		"sent":       sent,
	})
	return sent, nil
}

func (w *Worker) sendTo(ctx context.Context, userID string) (bool, error) {
	user, err := w.users.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil || user.Email == "" {
		return false, nil
	}

	list, err := w.alerts.GetAlerts(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(list) == 0 {
		return false, nil
	}

	summary := alerts.Summarize(list, w.config.TopN)
	name := user.FullName
	if name == "" {
		name = user.Email
	}
	now := w.now()

	messageID, err := w.mailer.Send(ctx, aws.Email{
		To:       user.Email,
		Subject:  renderTemplate(w.config.Subject, summaryData(name, summary)),
		TextBody: renderText(name, summary, now),
		HTMLBody: renderHTML(name, summary, now),
	})
	if err != nil {
		metrics.RecordIntegrationError("ses")
		return false, err
	}

	w.logger.Debug("digest sent", map[string]interface{}{
		"userId":    userID,
		"messageId": messageID,
		"alerts":    summary.TotalAlerts,
	})
	return true, nil
}
