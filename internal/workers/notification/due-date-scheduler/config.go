// internal/workers/notification/due-date-scheduler/config.go
package duedatescheduler

import (
	"time"

	"leadfollow/internal/common/config"
)

type Config struct {
	Enabled       bool
	CheckInterval time.Duration
	CoolDown      time.Duration
	TagWindow     time.Duration
	ScanTimeout   time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	s := cfg.Notifications.Scheduler
	return &Config{
		Enabled:       s.Enabled,
		CheckInterval: config.GetDuration(s.CheckInterval),
		CoolDown:      config.GetDuration(s.CoolDown),
		TagWindow:     config.GetDuration(s.TagWindow),
		ScanTimeout:   config.GetDuration(s.ScanTimeout),
	}
}
