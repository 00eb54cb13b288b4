// internal/workers/notification/due-date-scheduler/store.go
package duedatescheduler

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lastCheckKeyPrefix  = "leadfollow_last_notification_check:"
	permissionKeyPrefix = "leadfollow_notification_permission:"
	tagKeyPrefix        = "leadfollow_notification_tag:"
)

// LastCheckStore persists when a user's follow-ups were last scanned, as unix
// milliseconds, so the cool-down survives restarts and spans replicas.
type LastCheckStore struct {
	redis *redis.Client
}

func NewLastCheckStore(client *redis.Client) *LastCheckStore {
	return &LastCheckStore{redis: client}
}

// Get returns ok=false when no check was recorded.
func (s *LastCheckStore) Get(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := s.redis.Get(ctx, lastCheckKeyPrefix+userID).Result()
	if stderrors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// unreadable value, treat as never checked
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (s *LastCheckStore) Mark(ctx context.Context, userID string, at time.Time) error {
	return s.redis.Set(ctx, lastCheckKeyPrefix+userID, strconv.FormatInt(at.UnixMilli(), 10), 0).Err()
}

// PermissionStore records the notification permission each user granted on
// their devices. Absent means undecided.
type PermissionStore struct {
	redis *redis.Client
}

func NewPermissionStore(client *redis.Client) *PermissionStore {
	return &PermissionStore{redis: client}
}

func (s *PermissionStore) Get(ctx context.Context, userID string) (Permission, error) {
	val, err := s.redis.Get(ctx, permissionKeyPrefix+userID).Result()
	if stderrors.Is(err, redis.Nil) {
		return PermissionDefault, nil
	}
	if err != nil {
		return PermissionDefault, err
	}
	switch Permission(val) {
	case PermissionGranted, PermissionDenied:
		return Permission(val), nil
	}
	return PermissionDefault, nil
}

func (s *PermissionStore) Set(ctx context.Context, userID string, granted bool) error {
	p := PermissionDenied
	if granted {
		p = PermissionGranted
	}
	return s.redis.Set(ctx, permissionKeyPrefix+userID, string(p), 0).Err()
}
