// internal/workers/notification/daily-digest/config.go
package dailydigest

import (
	"time"

	"leadfollow/internal/common/config"
)

type Config struct {
	Enabled  bool
	Interval time.Duration
	Subject  string
	TopN     int
}

func LoadConfig(cfg *config.Config) *Config {
	d := cfg.Notifications.Digest
	return &Config{
		Enabled:  d.Enabled,
		Interval: config.GetDuration(d.Interval),
		Subject:  d.Subject,
		TopN:     cfg.FollowUp.SummaryTopN,
	}
}
