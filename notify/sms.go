package notify

import (
	"context"
	"fmt"
	"strings"

	"talktrack-backend/logging"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender sends a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioMessageAPI is the part of the Twilio REST client used here.
type TwilioMessageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	FromNumber  string
	CountryCode string
}

// TwilioSender sends SMS through Twilio's messaging API.
type TwilioSender struct {
	api         TwilioMessageAPI
	from        string
	countryCode string
	logger      *logging.Logger
}

// NewTwilioSender returns nil unless credentials and a sender number are set.
func NewTwilioSender(cfg TwilioConfig, logger *logging.Logger) *TwilioSender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSender(client.Api, cfg, logger)
}

func newTwilioSender(api TwilioMessageAPI, cfg TwilioConfig, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{api: api, from: cfg.FromNumber, countryCode: cfg.CountryCode, logger: logger}
}

// SendSMS sends body to a local ten-digit number or an E.164 number.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("notify: twilio client not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dest := s.e164(to)

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(dest)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		s.logger.Error("twilio send failed", "error", err, "to", dest)
		return fmt.Errorf("notify: twilio send failed: %w", err)
	}
	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	s.logger.Info("sms sent via twilio", "to", dest, "sid", sid)
	return nil
}

func (s *TwilioSender) e164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return s.countryCode + strings.TrimLeft(phone, "0")
}

// StubSMSSender logs instead of sending.
type StubSMSSender struct {
	logger *logging.Logger
}

func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub sms sender: would send sms", "to", to)
	return nil
}

var (
	_ SMSSender = (*TwilioSender)(nil)
	_ SMSSender = (*StubSMSSender)(nil)
)
