// internal/common/aws/aws_test.go
package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// SES Tests
// ==========================

func TestSESClient_Send(t *testing.T) {
	var captured *ses.SendEmailInput
	svc := &MockSESService{
		SendEmailFunc: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			captured = params
			return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
		},
	}
	client := NewSESClientWithService(svc, "noreply@leadfollow.test")

	id, err := client.Send(context.Background(), Email{
		To:       "owner@leadfollow.test",
		Subject:  "Digest",
		TextBody: "3 prospects need attention",
	})

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	require.NotNil(t, captured)
	assert.Equal(t, "noreply@leadfollow.test", aws.ToString(captured.Source))
	assert.Equal(t, []string{"owner@leadfollow.test"}, captured.Destination.ToAddresses)
	assert.Equal(t, "Digest", aws.ToString(captured.Message.Subject.Data))
	assert.Equal(t, "3 prospects need attention", aws.ToString(captured.Message.Body.Text.Data))
	assert.Nil(t, captured.Message.Body.Html)
}

func TestSESClient_SendErrors(t *testing.T) {
	svc := &MockSESService{
		SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	client := NewSESClientWithService(svc, "noreply@leadfollow.test")

	_, err := client.Send(context.Background(), Email{To: "a@b.test", Subject: "x"})
	assert.EqualError(t, err, "throttled")

	_, err = client.Send(context.Background(), Email{Subject: "x"})
	assert.Error(t, err)
}

// ==========================
// SNS Tests
// ==========================

func TestSNSClient_PublishJSON(t *testing.T) {
	var captured *sns.PublishInput
	svc := &MockSNSService{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
		},
	}
	client := NewSNSClientWithService(svc, "arn:aws:sns:us-east-1:123:followups")

	id, err := client.PublishJSON(context.Background(), "Overdue Follow-up: Ada",
		map[string]interface{}{"tag": "followup-Ada"},
		map[string]string{"userId": "u-1"})

	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:followups", aws.ToString(captured.TopicArn))
	assert.Equal(t, "Overdue Follow-up: Ada", aws.ToString(captured.Subject))
	assert.Equal(t, "u-1", aws.ToString(captured.MessageAttributes["userId"].StringValue))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(captured.Message)), &body))
	assert.Equal(t, "followup-Ada", body["tag"])
}

func TestSNSClient_TruncatesLongSubject(t *testing.T) {
	var captured *sns.PublishInput
	svc := &MockSNSService{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{}, nil
		},
	}
	client := NewSNSClientWithService(svc, "arn")

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	_, err := client.PublishJSON(context.Background(), string(long), struct{}{}, nil)

	require.NoError(t, err)
	assert.Len(t, aws.ToString(captured.Subject), 100)
	assert.Nil(t, captured.MessageAttributes)
}
