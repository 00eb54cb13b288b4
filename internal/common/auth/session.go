// internal/common/auth/session.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadfollow/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps sessions in Redis as JSON with a TTL equal to their lifetime.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: client, ttl: ttl, now: time.Now}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create starts a session for userID. The token is opaque and only returned here.
func (s *SessionStore) Create(ctx context.Context, userID, ip string) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Token:        uuid.NewString(),
		IPAddress:    ip,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
		LastActivity: now,
		IsActive:     true,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// Get returns the active session for id, or nil when it is unknown or expired.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !session.IsActive || session.IsExpired(s.now()) {
		return nil, nil
	}
	return &session, nil
}

// Delete ends the session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
