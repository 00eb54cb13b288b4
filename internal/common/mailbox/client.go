// internal/common/mailbox/client.go
package mailbox

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadfollow/internal/common/errors"
	httpclient "leadfollow/internal/common/http"
	"leadfollow/internal/models"
)

// Client reads a user's recent messages from the mailbox gateway, which holds
// the provider credentials and speaks the provider protocol.
type Client struct {
	apiToken    string
	baseURL     string
	maxMessages int
	http        *httpclient.Client
}

type listMessagesResponse struct {
	Messages []models.InboundMessage `json:"messages"`
}

func NewClient(baseURL, apiToken string, maxMessages int, timeout time.Duration) *Client {
	return &Client{
		apiToken:    apiToken,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		maxMessages: maxMessages,
		http:        httpclient.NewClient(timeout),
	}
}

// FetchSince returns the user's messages dated at or after since.
func (c *Client) FetchSince(ctx context.Context, userID string, since time.Time) ([]models.InboundMessage, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339))
	if c.maxMessages > 0 {
		q.Set("limit", fmt.Sprint(c.maxMessages))
	}
	endpoint := fmt.Sprintf("%s/users/%s/messages?%s", c.baseURL, url.PathEscape(userID), q.Encode())

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiToken)

	var resp listMessagesResponse
	if err := c.http.GetJSON(ctx, endpoint, header, &resp); err != nil {
		stdErr := errors.NewMailSyncFailedError(err)
		var statusErr *httpclient.StatusError
		if stderrors.As(err, &statusErr) {
			stdErr.Retryable = statusErr.Transient()
		}
		return nil, stdErr
	}
	if resp.Messages == nil {
		return []models.InboundMessage{}, nil
	}
	return resp.Messages, nil
}
