// internal/workers/notification/due-date-scheduler/notifier.go
package duedatescheduler

import (
	"context"
	"time"

	"leadfollow/internal/common/errors"
	"leadfollow/internal/models"

	"github.com/redis/go-redis/v9"
)

// Publisher is satisfied by *aws.SNSClient.
type Publisher interface {
	PublishJSON(ctx context.Context, subject string, payload interface{}, attrs map[string]string) (string, error)
}

type permissionRequest struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// SNSNotifier fans notifications out to the user's subscribed devices through
// an SNS topic. Messages carry userId and kind attributes for subscription
// filtering. Tags are coalesced in Redis for the tag window, mirroring how a
// browser replaces a notification that shares a tag.
type SNSNotifier struct {
	publisher   Publisher
	permissions *PermissionStore
	redis       *redis.Client
	tagWindow   time.Duration
}

// NewSNSNotifier returns a notifier; a nil publisher makes it unsupported.
func NewSNSNotifier(publisher Publisher, permissions *PermissionStore, client *redis.Client, tagWindow time.Duration) *SNSNotifier {
	return &SNSNotifier{
		publisher:   publisher,
		permissions: permissions,
		redis:       client,
		tagWindow:   tagWindow,
	}
}

func (n *SNSNotifier) Supported() bool {
	return n.publisher != nil
}

func (n *SNSNotifier) Permission(ctx context.Context, userID string) (Permission, error) {
	return n.permissions.Get(ctx, userID)
}

func (n *SNSNotifier) RequestPermission(ctx context.Context, userID string) (Permission, error) {
	_, err := n.publisher.PublishJSON(ctx, "Enable follow-up notifications",
		permissionRequest{Type: "permission_request", UserID: userID},
		map[string]string{"userId": userID, "kind": "permission_request"},
	)
	if err != nil {
		return PermissionDefault, errors.NewNotificationSendFailedError("sns", err)
	}
	return n.permissions.Get(ctx, userID)
}

func (n *SNSNotifier) Show(ctx context.Context, msg models.Notification) (bool, error) {
	if msg.Tag != "" && n.tagWindow > 0 {
		fresh, err := n.redis.SetNX(ctx, tagKeyPrefix+msg.UserID+":"+msg.Tag, msg.CreatedAt.UnixMilli(), n.tagWindow).Result()
		if err != nil {
			return false, errors.NewCacheUnavailableError(err)
		}
		if !fresh {
			return false, nil
		}
	}

	if _, err := n.publisher.PublishJSON(ctx, msg.Title, msg, map[string]string{
		"userId": msg.UserID,
		"kind":   string(msg.Kind),
	}); err != nil {
		return false, errors.NewNotificationSendFailedError("sns", err)
	}
	return true, nil
}
