// internal/workers/notification/due-date-scheduler/manager.go
package duedatescheduler

import (
	"context"
	"sync"

	"leadfollow/internal/common/logger"
)

// Manager owns one Scheduler per signed-in user.
type Manager struct {
	config     *Config
	notifier   Notifier
	settings   SettingsProvider
	followUps  PendingFollowUps
	lastCheck  *LastCheckStore
	logger     logger.Logger
	mu         sync.Mutex
	schedulers map[string]*Scheduler
}

func NewManager(
	config *Config,
	notifier Notifier,
	settings SettingsProvider,
	followUps PendingFollowUps,
	lastCheck *LastCheckStore,
	log logger.Logger,
) *Manager {
	return &Manager{
		config:     config,
		notifier:   notifier,
		settings:   settings,
		followUps:  followUps,
		lastCheck:  lastCheck,
		logger:     log,
		schedulers: make(map[string]*Scheduler),
	}
}

func (m *Manager) get(userID string) *Scheduler {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schedulers[userID]
	if !ok {
		s = NewScheduler(userID, m.config, m.notifier, m.settings, m.followUps, m.lastCheck, m.logger)
		m.schedulers[userID] = s
	}
	return s
}

// Start starts the user's scheduler, creating it on first use. It does nothing
// when scheduling is disabled.
func (m *Manager) Start(ctx context.Context, userID string) error {
	if !m.config.Enabled {
		return nil
	}
	return m.start(ctx, userID, m.get(userID))
}

// start arms s. A Stop or StopAll that removed s from the map before it was
// armed found nothing to stop, so s is stopped here instead of being orphaned.
func (m *Manager) start(ctx context.Context, userID string, s *Scheduler) error {
	err := s.Start(ctx)

	m.mu.Lock()
	owned := m.schedulers[userID] == s
	m.mu.Unlock()

	if !owned {
		s.Stop()
	}
	return err
}

// Stop stops and forgets the user's scheduler.
func (m *Manager) Stop(userID string) {
	m.mu.Lock()
	s, ok := m.schedulers[userID]
	delete(m.schedulers, userID)
	m.mu.Unlock()

	if ok {
		s.Stop()
	}
}

// Restart replaces the user's scheduler with a fresh one, clearing a previous
// denial. Used when the user changes permission or notification settings.
func (m *Manager) Restart(ctx context.Context, userID string) error {
	m.Stop(userID)
	return m.Start(ctx, userID)
}

func (m *Manager) State(userID string) State {
	m.mu.Lock()
	s, ok := m.schedulers[userID]
	m.mu.Unlock()

	if !ok {
		return StateStopped
	}
	return s.State()
}

// StopAll stops every scheduler. Called on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	all := m.schedulers
	m.schedulers = make(map[string]*Scheduler)
	m.mu.Unlock()

	for _, s := range all {
		s.Stop()
	}
}
