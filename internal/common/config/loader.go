// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads .env, configs/config.yaml and the environment-specific overlay.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	// bool defaults cannot be told apart from "false" after unmarshal
	v.SetDefault("followup.default_settings.notify_email", true)
	v.SetDefault("followup.default_settings.notify_browser", true)
	v.SetDefault("followup.default_settings.notify_daily_digest", true)
	v.SetDefault("notifications.scheduler.enabled", true)

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are commonly provided as plain env vars.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Auth.Keycloak.ClientSecret, "KEYCLOAK_CLIENT_SECRET")
	setIfEmpty(&cfg.Integrations.Zoho.AuthToken, "ZOHO_CRM_OAUTH_TOKEN")
	setIfEmpty(&cfg.Integrations.Mailbox.APIToken, "MAILBOX_GATEWAY_TOKEN")
	setIfEmpty(&cfg.Integrations.AWS.SNS.TopicARN, "AWS_SNS_TOPIC_ARN")
	setIfEmpty(&cfg.Integrations.AWS.SES.FromEmail, "AWS_SES_FROM_EMAIL")
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "leadfollow"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 20000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Elasticsearch.ProspectIndex == "" {
		cfg.Database.Elasticsearch.ProspectIndex = "prospects"
	}

	if cfg.Auth.Session.CookieName == "" {
		cfg.Auth.Session.CookieName = "leadfollow.sid"
	}
	if cfg.Auth.Session.TTL == 0 {
		cfg.Auth.Session.TTL = 24 * 60 * 60 * 1000
	}

	if cfg.Integrations.Zoho.BaseURL == "" {
		cfg.Integrations.Zoho.BaseURL = "https://www.zohoapis.com/crm/v3"
	}
	if cfg.Integrations.Zoho.PageSize == 0 {
		cfg.Integrations.Zoho.PageSize = 200
	}
	if cfg.Integrations.Zoho.Timeout == 0 {
		cfg.Integrations.Zoho.Timeout = 30000
	}
	if cfg.Integrations.Mailbox.MaxMessages == 0 {
		cfg.Integrations.Mailbox.MaxMessages = 20
	}
	if cfg.Integrations.Mailbox.Lookback == 0 {
		cfg.Integrations.Mailbox.Lookback = 7 * 24 * 60 * 60 * 1000
	}
	if cfg.Integrations.Mailbox.Timeout == 0 {
		cfg.Integrations.Mailbox.Timeout = 30000
	}
	if cfg.Integrations.AWS.Region == "" {
		cfg.Integrations.AWS.Region = "us-east-1"
	}

	applyFollowUpDefaults(&cfg.FollowUp)

	if cfg.Notifications.Scheduler.CheckInterval == 0 {
		cfg.Notifications.Scheduler.CheckInterval = 30 * 60 * 1000
	}
	if cfg.Notifications.Scheduler.CoolDown == 0 {
		cfg.Notifications.Scheduler.CoolDown = 30 * 60 * 1000
	}
	if cfg.Notifications.Scheduler.TagWindow == 0 {
		cfg.Notifications.Scheduler.TagWindow = 60 * 1000
	}
	if cfg.Notifications.Scheduler.ScanTimeout == 0 {
		cfg.Notifications.Scheduler.ScanTimeout = 30000
	}
	if cfg.Notifications.Digest.Interval == 0 {
		cfg.Notifications.Digest.Interval = 24 * 60 * 60 * 1000
	}
	if cfg.Notifications.Digest.Subject == "" {
		cfg.Notifications.Digest.Subject = "Your follow-up digest: {{totalAlerts}} prospects need attention"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyFollowUpDefaults(f *FollowUpConfig) {
	d := &f.DefaultSettings
	if d.InitialResponseDays == 0 {
		d.InitialResponseDays = 2
	}
	if d.StandardFollowUpDays == 0 {
		d.StandardFollowUpDays = 4
	}
	if d.HighPriorityDays == 0 {
		d.HighPriorityDays = 3
	}
	if d.MediumPriorityDays == 0 {
		d.MediumPriorityDays = 1
	}
	if d.LowPriorityDays == 0 {
		d.LowPriorityDays = 3
	}
	if f.SettingsCacheTTL == 0 {
		f.SettingsCacheTTL = 5 * 60 * 1000
	}
	if f.AutoTaskDueInDays == 0 {
		f.AutoTaskDueInDays = 1
	}
	if f.SummaryTopN == 0 {
		f.SummaryTopN = 10
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Elasticsearch.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when elasticsearch is enabled")
	}
	if cfg.Integrations.Mailbox.Enabled && cfg.Integrations.Mailbox.BaseURL == "" {
		return fmt.Errorf("integrations.mailbox.base_url is required when the mailbox gateway is enabled")
	}
	if cfg.Integrations.AWS.SES.Enabled && cfg.Integrations.AWS.SES.FromEmail == "" {
		return fmt.Errorf("integrations.aws.ses.from_email is required when SES is enabled")
	}
	if cfg.Integrations.AWS.SNS.Enabled && cfg.Integrations.AWS.SNS.TopicARN == "" {
		return fmt.Errorf("integrations.aws.sns.topic_arn is required when SNS is enabled")
	}
	if cfg.FollowUp.DefaultSettings.StandardFollowUpDays < 1 {
		return fmt.Errorf("followup.default_settings.standard_follow_up_days must be >= 1")
	}
	if cfg.Notifications.Scheduler.CheckInterval < 0 || cfg.Notifications.Scheduler.CoolDown < 0 {
		return fmt.Errorf("notifications.scheduler intervals must not be negative")
	}
	return nil
}
