package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeTwilio struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeTwilio) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSender_LocalNumberGetsCountryCode(t *testing.T) {
	api := &fakeTwilio{}
	sender := newTwilioSender(api, TwilioConfig{FromNumber: "+15550000000", CountryCode: "+234"}, nil)

	require.NoError(t, sender.SendSMS(context.Background(), "0803123456", "hello"))
	require.NotNil(t, api.params)
	assert.Equal(t, "+234803123456", *api.params.To)
	assert.Equal(t, "+15550000000", *api.params.From)
	assert.Equal(t, "hello", *api.params.Body)
}

func TestTwilioSender_KeepsE164(t *testing.T) {
	api := &fakeTwilio{}
	sender := newTwilioSender(api, TwilioConfig{FromNumber: "+15550000000", CountryCode: "+234"}, nil)
	require.NoError(t, sender.SendSMS(context.Background(), "+447700900123", "hello"))
	assert.Equal(t, "+447700900123", *api.params.To)
}

func TestTwilioSender_Error(t *testing.T) {
	boom := errors.New("unreachable")
	sender := newTwilioSender(&fakeTwilio{err: boom}, TwilioConfig{FromNumber: "+1"}, nil)
	assert.ErrorIs(t, sender.SendSMS(context.Background(), "+1555", "x"), boom)
}

func TestNewTwilioSender_NilWithoutCredentials(t *testing.T) {
	assert.Nil(t, NewTwilioSender(TwilioConfig{AccountSID: "AC1"}, nil))
	var s *TwilioSender
	assert.Error(t, s.SendSMS(context.Background(), "+1", "x"))
}

func TestStubSMSSender(t *testing.T) {
	assert.NoError(t, NewStubSMSSender(nil).SendSMS(context.Background(), "5551234567", "x"))
}
