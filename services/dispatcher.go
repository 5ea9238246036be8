package services

import (
	"context"
	"time"

	"talktrack-backend/logging"
	"talktrack-backend/metrics"
	"talktrack-backend/models"
	"talktrack-backend/notify"

	"gorm.io/gorm"
)

const deliveryTimeout = 15 * time.Second

// Delivery kinds recorded in the delivery log.
const (
	KindNewSubmission = "new_submission"
	KindScheduled     = "scheduled"
	KindCancelled     = "cancelled"
	KindDigest        = "digest"
)

// Dispatcher sends best-effort emails and texts. Failures are logged and
// recorded, never returned to the caller's workflow.
type Dispatcher struct {
	db      *gorm.DB
	email   notify.EmailSender
	sms     notify.SMSSender
	metrics *metrics.Metrics
	logger  *logging.Logger
}

func NewDispatcher(db *gorm.DB, email notify.EmailSender, sms notify.SMSSender, m *metrics.Metrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{db: db, email: email, sms: sms, metrics: m, logger: logger}
}

type delivery struct {
	businessID    uint
	userDetailsID *uint
	kind          string
}

// Email sends msg and reports whether the provider accepted it.
func (d *Dispatcher) Email(ctx context.Context, dl delivery, msg notify.EmailMessage) bool {
	if d.email == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()
	err := d.email.Send(ctx, msg)
	d.record(ctx, dl, "email", msg.To, err)
	return err == nil
}

// SMS sends body to phone and reports whether the provider accepted it.
func (d *Dispatcher) SMS(ctx context.Context, dl delivery, phone, body string) bool {
	if d.sms == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()
	err := d.sms.SendSMS(ctx, phone, body)
	d.record(ctx, dl, "sms", phone, err)
	return err == nil
}

func (d *Dispatcher) record(ctx context.Context, dl delivery, channel, recipient string, sendErr error) {
	d.metrics.ObserveDelivery(channel, sendErr == nil)
	entry := models.DeliveryLog{
		BusinessID:    dl.businessID,
		UserDetailsID: dl.userDetailsID,
		Kind:          dl.kind,
		Channel:       channel,
		Recipient:     recipient,
		Status:        "sent",
		SentAt:        time.Now(),
	}
	if sendErr != nil {
		entry.Status = "failed"
		entry.ErrorMessage = sendErr.Error()
		d.logger.Error("delivery failed", "error", sendErr, "channel", channel, "kind", dl.kind, "business_id", dl.businessID)
	}
	if err := d.db.WithContext(ctx).Create(&entry).Error; err != nil {
		d.logger.Warn("failed to record delivery", "error", err, "channel", channel, "kind", dl.kind)
	}
}
