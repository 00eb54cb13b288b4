// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Integrations  IntegrationConfig  `mapstructure:"integrations"`
	FollowUp      FollowUpConfig     `mapstructure:"followup"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RequestTimeout  int      `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	ProspectIndex string   `mapstructure:"prospect_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds the identity provider and session settings.
type AuthConfig struct {
	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
	} `mapstructure:"keycloak"`

	Session struct {
		CookieName string `mapstructure:"cookie_name"`
		TTL        int    `mapstructure:"ttl"` // milliseconds
		Secure     bool   `mapstructure:"secure"`
	} `mapstructure:"session"`
}

// IntegrationConfig holds settings for the CRM, mailbox gateway and AWS services.
type IntegrationConfig struct {
	Zoho struct {
		Enabled   bool   `mapstructure:"enabled"`
		BaseURL   string `mapstructure:"base_url"`
		AuthToken string `mapstructure:"oauth_token"`
		PageSize  int    `mapstructure:"page_size"`
		Timeout   int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"zoho"`

	Mailbox struct {
		Enabled     bool   `mapstructure:"enabled"`
		BaseURL     string `mapstructure:"base_url"`
		APIToken    string `mapstructure:"api_token"`
		MaxMessages int    `mapstructure:"max_messages"`
		Lookback    int    `mapstructure:"lookback"` // milliseconds
		Timeout     int    `mapstructure:"timeout"`  // milliseconds
	} `mapstructure:"mailbox"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// FollowUpConfig holds defaults for the follow-up engine.
type FollowUpConfig struct {
	DefaultSettings struct {
		InitialResponseDays  int  `mapstructure:"initial_response_days"`
		StandardFollowUpDays int  `mapstructure:"standard_follow_up_days"`
		HighPriorityDays     int  `mapstructure:"high_priority_days"`
		MediumPriorityDays   int  `mapstructure:"medium_priority_days"`
		LowPriorityDays      int  `mapstructure:"low_priority_days"`
		NotifyEmail          bool `mapstructure:"notify_email"`
		NotifyBrowser        bool `mapstructure:"notify_browser"`
		NotifyDailyDigest    bool `mapstructure:"notify_daily_digest"`
	} `mapstructure:"default_settings"`
	SettingsCacheTTL  int `mapstructure:"settings_cache_ttl"` // milliseconds
	AutoTaskDueInDays int `mapstructure:"auto_task_due_in_days"`
	SummaryTopN       int `mapstructure:"summary_top_n"`
}

// NotificationConfig holds settings for the scheduler and the digest worker.
type NotificationConfig struct {
	Scheduler struct {
		Enabled       bool `mapstructure:"enabled"`
		CheckInterval int  `mapstructure:"check_interval"` // milliseconds
		CoolDown      int  `mapstructure:"cool_down"`      // milliseconds
		TagWindow     int  `mapstructure:"tag_window"`     // milliseconds
		ScanTimeout   int  `mapstructure:"scan_timeout"`   // milliseconds
	} `mapstructure:"scheduler"`
	Digest struct {
		Enabled  bool   `mapstructure:"enabled"`
		Interval int    `mapstructure:"interval"` // milliseconds
		Subject  string `mapstructure:"subject"`
	} `mapstructure:"digest"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts a millisecond config value to a time.Duration.
func GetDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
