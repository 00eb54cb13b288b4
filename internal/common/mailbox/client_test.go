// internal/common/mailbox/client_test.go
package mailbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadfollow/internal/common/errors"
)

var since = time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "gw-token", 50, 5*time.Second)
}

func TestFetchSince(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u-1/messages", r.URL.Path)
		assert.Equal(t, "Bearer gw-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-05-13T09:00:00Z", r.URL.Query().Get("since"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages": [{
			"messageId": "<m-1@mail>",
			"from": "Ada Lovelace <ada@engines.io>",
			"to": "me@example.com",
			"subject": "Pricing",
			"body": "Can we talk?",
			"date": "2024-05-19T10:00:00Z"
		}]}`))
	})

	msgs, err := client.FetchSince(context.Background(), "u-1", since)

	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "<m-1@mail>", msgs[0].MessageID)
	assert.Equal(t, "Ada Lovelace <ada@engines.io>", msgs[0].From)
	assert.True(t, msgs[0].Date.Equal(time.Date(2024, 5, 19, 10, 0, 0, 0, time.UTC)))
}

func TestFetchSince_NoContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	msgs, err := client.FetchSince(context.Background(), "u-1", since)

	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestFetchSince_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, retryable: false},
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
		{name: "gateway down", status: http.StatusBadGateway, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.FetchSince(context.Background(), "u-1", since)

			require.Error(t, err)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeMailSyncFailed, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}
