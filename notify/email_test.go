package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "test@example.com"}, nil))
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "test@example.com"}, nil)
	require.NotNil(t, sender)
	assert.Equal(t, "TalkTrack", sender.fromName)
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	err := sender.Send(context.Background(), EmailMessage{To: "recipient@example.com", Subject: "Test"})
	assert.Error(t, err)
}

func TestStubEmailSender_Send(t *testing.T) {
	err := NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "Hi"})
	assert.NoError(t, err)
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_BuildsMessage(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, SESConfig{FromEmail: "noreply@example.com", FromName: "Acme"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "client@example.com",
		Subject: "Booked",
		Body:    "plain",
		HTML:    "<p>html</p>",
	})
	require.NoError(t, err)
	require.NotNil(t, api.input)
	assert.Equal(t, "Acme <noreply@example.com>", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"client@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Booked", aws.ToString(api.input.Content.Simple.Subject.Data))
	assert.Equal(t, "plain", aws.ToString(api.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(api.input.Content.Simple.Body.Html.Data))
}

func TestSESSender_WrapsError(t *testing.T) {
	boom := errors.New("throttled")
	sender := NewSESSender(&fakeSES{err: boom}, SESConfig{FromEmail: "noreply@example.com"}, nil)
	err := sender.Send(context.Background(), EmailMessage{To: "client@example.com", Subject: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}
