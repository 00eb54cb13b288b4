// internal/followup/settings/service.go
package settings

import (
	"context"
	"encoding/json"
	"time"

	"leadfollow/internal/common/errors"
	"leadfollow/internal/common/logger"
	"leadfollow/internal/common/validation"
	"leadfollow/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "followup_settings:"

type Config struct {
	// Defaults is copied for every user on first read; UserID is overwritten.
	Defaults models.FollowUpSettings
	CacheTTL time.Duration
}

// Service materialises, caches and updates per-user follow-up settings.
type Service struct {
	config *Config
	repo   models.SettingsRepository
	redis  *redis.Client
	logger logger.Logger
}

// NewService builds the settings service. redis may be nil, which disables caching.
func NewService(config *Config, repo models.SettingsRepository, redis *redis.Client, log logger.Logger) *Service {
	return &Service{
		config: config,
		repo:   repo,
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"component": "followup-settings"}),
	}
}

func cacheKey(userID string) string {
	return cacheKeyPrefix + userID
}

// GetSettings returns the user's settings, creating the default row on first read.
// It never returns nil settings without an error.
func (s *Service) GetSettings(ctx context.Context, userID string) (*models.FollowUpSettings, error) {
	if cached := s.fromCache(ctx, userID); cached != nil {
		return cached, nil
	}

	settings, err := s.materialise(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, settings)
	return settings, nil
}

// UpdateSettings validates body as a partial settings document, applies it and
// invalidates the cache. Only the fields present in body are written, so
// concurrent updates of different fields do not overwrite each other.
// Validation failures return SETTINGS_VALIDATION_FAILED.
func (s *Service) UpdateSettings(ctx context.Context, userID string, body []byte) (*models.FollowUpSettings, error) {
	if res := validation.FollowUpSettingsUpdate.Validate(body); !res.Valid {
		return nil, errors.NewSettingsValidationError(res.Summary())
	}

	var patch models.SettingsPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, errors.NewSettingsValidationError(err.Error())
	}

	if _, err := s.materialise(ctx, userID); err != nil {
		return nil, err
	}

	updated, err := s.repo.PatchFollowUpSettings(ctx, userID, patch)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.logger.Info("follow-up settings updated", map[string]interface{}{
		"userId":               userID,
		"standardFollowUpDays": updated.StandardFollowUpDays,
		"notifyBrowser":        updated.NotifyBrowser,
	})
	return updated, nil
}

func (s *Service) materialise(ctx context.Context, userID string) (*models.FollowUpSettings, error) {
	settings, err := s.repo.GetFollowUpSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	defaults := s.config.Defaults
	defaults.UserID = userID
	created, err := s.repo.CreateFollowUpSettings(ctx, defaults)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("default follow-up settings created", map[string]interface{}{"userId": userID})
	return created, nil
}

func (s *Service) fromCache(ctx context.Context, userID string) *models.FollowUpSettings {
	if s.redis == nil {
		return nil
	}

	val, err := s.redis.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("settings cache read failed", map[string]interface{}{"userId": userID, "error": err})
		}
		return nil
	}

	var settings models.FollowUpSettings
	if err := json.Unmarshal(val, &settings); err != nil {
		return nil
	}
	return &settings
}

func (s *Service) toCache(ctx context.Context, settings *models.FollowUpSettings) {
	if s.redis == nil || s.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(settings.UserID), data, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn("settings cache write failed", map[string]interface{}{"userId": settings.UserID, "error": err})
	}
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey(userID)).Err(); err != nil {
		s.logger.Warn("settings cache invalidation failed", map[string]interface{}{"userId": userID, "error": err})
	}
}
