// internal/common/auth/auth_test.go
package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfollow/internal/common/errors"
)

// ==========================
// Test Helper Functions
// ==========================

func newKeycloakServer(t *testing.T, handler http.HandlerFunc) *KeycloakClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewKeycloakClient(srv.URL+"/", "leadfollow")
}

func newTestSessionStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionStore(client, ttl), mr
}

// ==========================
// Keycloak Tests
// ==========================

func TestKeycloak_UserInfo(t *testing.T) {
	var gotPath, gotAuth string
	kc := newKeycloakServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"kc-123","email":"ada@example.com","name":"Ada Lovelace","preferred_username":"ada"}`))
	})

	id, err := kc.UserInfo(context.Background(), "token-abc")

	require.NoError(t, err)
	assert.Equal(t, "/realms/leadfollow/protocol/openid-connect/userinfo", gotPath)
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, "kc-123", id.Subject)
	assert.Equal(t, "Ada Lovelace", id.DisplayName())
}

func TestKeycloak_UserInfoFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      errors.ErrorCode
		retryable bool
	}{
		{name: "inactive token", status: http.StatusUnauthorized, code: errors.ErrCodeAuthentication},
		{name: "server error", status: http.StatusServiceUnavailable, body: "down", code: errors.ErrCodeExternalService, retryable: true},
		{name: "bad request", status: http.StatusBadRequest, body: "nope", code: errors.ErrCodeExternalService},
		{name: "missing subject", status: http.StatusOK, body: `{"email":"a@b.test"}`, code: errors.ErrCodeAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kc := newKeycloakServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := kc.UserInfo(context.Background(), "token")

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestKeycloak_EmptyToken(t *testing.T) {
	kc := NewKeycloakClient("http://127.0.0.1:1", "leadfollow")
	_, err := kc.UserInfo(context.Background(), "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeAuthentication))
}

func TestIdentity_DisplayName(t *testing.T) {
	assert.Equal(t, "ada", (&Identity{PreferredUsername: "ada", Email: "a@x"}).DisplayName())
	assert.Equal(t, "a@x", (&Identity{Email: "a@x"}).DisplayName())
}

// ==========================
// Session Store Tests
// ==========================

func TestSessionStore_Lifecycle(t *testing.T) {
	store, mr := newTestSessionStore(t, time.Hour)
	ctx := context.Background()

	session, err := store.Create(ctx, "kc-123", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+session.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+session.ID))

	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "kc-123", loaded.UserID)
	assert.True(t, loaded.IsActive)

	require.NoError(t, store.Delete(ctx, session.ID))
	loaded, err = store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStore_ExpiredSessionIgnored(t *testing.T) {
	store, _ := newTestSessionStore(t, time.Hour)
	ctx := context.Background()

	session, err := store.Create(ctx, "kc-123", "")
	require.NoError(t, err)

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStore_CorruptPayload(t *testing.T) {
	store, mr := newTestSessionStore(t, time.Hour)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
}
