// internal/workers/notification/due-date-scheduler/scheduler.go
package duedatescheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"leadfollow/internal/common/logger"
	"leadfollow/internal/common/metrics"
	"leadfollow/internal/followup/classifier"
	"leadfollow/internal/models"
)

// Scheduler periodically scans one user's pending follow-ups and notifies
// about overdue and due-today items. It moves Stopped -> Armed on Start,
// Armed -> Checking for the duration of a check, and back to Stopped on Stop.
type Scheduler struct {
	userID    string
	config    *Config
	notifier  Notifier
	settings  SettingsProvider
	followUps PendingFollowUps
	lastCheck *LastCheckStore
	logger    logger.Logger
	now       func() time.Time

	state atomic.Int32

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	requested bool
	denied    bool
}

func NewScheduler(
	userID string,
	config *Config,
	notifier Notifier,
	settings SettingsProvider,
	followUps PendingFollowUps,
	lastCheck *LastCheckStore,
	log logger.Logger,
) *Scheduler {
	return &Scheduler{
		userID:    userID,
		config:    config,
		notifier:  notifier,
		settings:  settings,
		followUps: followUps,
		lastCheck: lastCheck,
		logger: log.WithFields(map[string]interface{}{
			"component": "due-date-scheduler",
			"userId":    userID,
		}),
		now: time.Now,
	}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start arms the scheduler when the notifier is supported, the user granted
// permission and browser notifications are enabled in their settings.
// Otherwise it stays stopped. Starting an armed scheduler does nothing.
// The loop is detached from ctx; only Stop ends it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil || s.denied {
		return nil
	}
	if !s.notifier.Supported() {
		s.logger.Debug("notifications unsupported, scheduler not started", nil)
		return nil
	}

	perm, err := s.notifier.Permission(ctx, s.userID)
	if err != nil {
		return err
	}
	if perm == PermissionDefault && !s.requested {
		s.requested = true
		if perm, err = s.notifier.RequestPermission(ctx, s.userID); err != nil {
			return err
		}
	}
	switch perm {
	case PermissionDenied:
		s.denied = true
		s.logger.Warn("notification permission denied, scheduler disabled for this session", nil)
		return nil
	case PermissionGranted:
	default:
		return nil
	}

	settings, err := s.settings.GetSettings(ctx, s.userID)
	if err != nil {
		return err
	}
	if !settings.NotifyBrowser {
		s.logger.Debug("browser notifications disabled in settings", nil)
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state.Store(int32(StateArmed))
	metrics.SchedulersActive.Inc()

	go s.run(loopCtx, s.done)

	s.logger.Info("scheduler armed", map[string]interface{}{
		"checkInterval": s.config.CheckInterval.String(),
	})
	return nil
}

// Stop cancels the loop, waits for an in-flight check and leaves the scheduler stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.state.Store(int32(StateStopped))
	metrics.SchedulersActive.Dec()
	s.logger.Info("scheduler stopped", nil)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.Tick(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one check if the scheduler is armed and the cool-down since the
// last recorded check has elapsed. It reports whether a scan ran. A tick that
// finds another check in flight is dropped.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.state.CompareAndSwap(int32(StateArmed), int32(StateChecking)) {
		metrics.SchedulerScans.WithLabelValues("dropped").Inc()
		return false
	}
	defer s.state.CompareAndSwap(int32(StateChecking), int32(StateArmed))

	now := s.now()
	last, ok, err := s.lastCheck.Get(ctx, s.userID)
	if err != nil {
		metrics.SchedulerScans.WithLabelValues("error").Inc()
		s.logger.Warn("last check unavailable, skipping cycle", map[string]interface{}{"error": err})
		return false
	}
	if ok && now.Sub(last) < s.config.CoolDown {
		metrics.SchedulerScans.WithLabelValues("cooldown").Inc()
		return false
	}
	if err := s.lastCheck.Mark(ctx, s.userID, now); err != nil {
		s.logger.Warn("could not record check time", map[string]interface{}{"error": err})
	}

	s.scan(ctx, now)
	return true
}

func (s *Scheduler) scan(ctx context.Context, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	pending, err := s.followUps.GetPendingFollowUpsByUser(ctx, s.userID)
	if err != nil {
		metrics.SchedulerScans.WithLabelValues("error").Inc()
		s.logger.Error("failed to fetch follow-ups", map[string]interface{}{"error": err})
		return
	}

	sent := 0
	for _, item := range pending {
		n, ok := BuildNotification(s.userID, item, now)
		if !ok {
			continue
		}

		delivered, err := s.notifier.Show(ctx, n)
		switch {
		case err != nil:
			metrics.NotificationsSent.WithLabelValues(string(n.Kind), "failed").Inc()
			s.logger.Warn("notification not shown", map[string]interface{}{
				"followUpId": item.ID,
				"error":      err,
			})
		case delivered:
			sent++
			metrics.NotificationsSent.WithLabelValues(string(n.Kind), "sent").Inc()
		default:
			metrics.NotificationsSent.WithLabelValues(string(n.Kind), "coalesced").Inc()
		}
	}

	metrics.SchedulerScans.WithLabelValues("success").Inc()
	s.logger.Debug("follow-up scan finished", map[string]interface{}{
		"pending": len(pending),
		"sent":    sent,
	})
}

// BuildNotification returns the notification for a follow-up due before the
// end of the next 24h window, or ok=false when none is due. The day count is
// the ceiling of 24h periods until the due date, so anything overdue by less
// than a day still counts as due today.
func BuildNotification(userID string, item models.FollowUpWithProspect, now time.Time) (models.Notification, bool) {
	if item.Completed {
		return models.Notification{}, false
	}

	name := item.Prospect.Name
	if name == "" {
		name = unknownProspectName
	}

	n := models.Notification{
		UserID:     userID,
		FollowUpID: item.ID,
		Tag:        tagPrefix + name,
		CreatedAt:  now,
	}

	diffDays := classifier.DaysUntilCeil(item.DueDate, now)
	switch {
	case diffDays < 0:
		n.Kind = models.NotificationOverdue
		n.Title = overdueTitlePrefix + name
		n.Body = overdueBody
		n.RequireInteraction = true
	case diffDays == 0:
		n.Kind = models.NotificationDueToday
		n.Title = dueTodayTitlePrefix + name
		n.Body = dueTodayBody
	default:
		return models.Notification{}, false
	}
	return n, true
}
