package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"talktrack-backend/formschema"
	"talktrack-backend/logging"
	"talktrack-backend/metrics"
	"talktrack-backend/models"
	"talktrack-backend/notify"
	"talktrack-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// transitions lists the statuses reachable from each status. Nothing leads
// back to pending.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:   {models.StatusScheduled, models.StatusCancelled},
	models.StatusScheduled: {models.StatusCancelled},
	models.StatusCancelled: {models.StatusScheduled},
}

// CanTransition reports whether an owner may move an appointment from one
// status to another.
func CanTransition(from, to models.AppointmentStatus) bool {
	return slices.Contains(transitions[from], to)
}

type AppointmentService struct {
	db            *gorm.DB
	forms         *FormService
	dispatch      *Dispatcher
	publicBaseURL string
	metrics       *metrics.Metrics
	logger        *logging.Logger
}

func NewAppointmentService(db *gorm.DB, forms *FormService, dispatch *Dispatcher, publicBaseURL string, m *metrics.Metrics, logger *logging.Logger) *AppointmentService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentService{
		db:            db,
		forms:         forms,
		dispatch:      dispatch,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		metrics:       m,
		logger:        logger,
	}
}

type VisitorDetails struct {
	Name  string
	Email string
	Phone string
}

func (v VisitorDetails) validate() error {
	fields := map[string]string{}
	if utf8.RuneCountInString(strings.TrimSpace(v.Name)) < 4 {
		fields["name"] = "Must be at least 4 characters"
	}
	if addr, err := mail.ParseAddress(v.Email); err != nil || addr.Address != v.Email {
		fields["email"] = "Invalid email address"
	}
	if !utils.ValidatePhone(v.Phone) {
		fields["phone"] = "Phone number must be exactly 10 digits"
	}
	if len(fields) > 0 {
		return validationError("Invalid details", fields)
	}
	return nil
}

// StartSubmission records who is filling a published form. The record
// starts pending and has no answers yet. Its random Token, not the
// sequential ID, is what Submit takes.
func (s *AppointmentService) StartSubmission(ctx context.Context, shareURL string, in VisitorDetails) (*models.UserDetails, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.forms.publishedByShareURL(s.db.WithContext(ctx), shareURL); err != nil {
		return nil, err
	}
	details := models.UserDetails{
		FormShareURL: shareURL,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Status:       models.StatusPending,
		Token:        uuid.NewString(),
	}
	if err := s.db.WithContext(ctx).Create(&details).Error; err != nil {
		return nil, err
	}
	return &details, nil
}

// Submit stores a visitor's answers. The submission row, the form's counter
// and the owner notification commit together; the owner email goes out
// after the commit.
func (s *AppointmentService) Submit(ctx context.Context, shareURL, token string, values map[string]string) (*models.FormSubmission, error) {
	var (
		form       *models.Form
		details    models.UserDetails
		business   models.Business
		elements   []formschema.Element
		submission models.FormSubmission
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if form, err = s.forms.publishedByShareURL(tx, shareURL); err != nil {
			return err
		}
		if token == "" {
			return ErrNotFound
		}
		if err := tx.Where("token = ? AND form_share_url = ?", token, shareURL).First(&details).Error; err != nil {
			return notFound(err)
		}
		if details.SubmittedAt != nil {
			return ErrAlreadySubmitted
		}

		elements = s.forms.renderableElements(*form)
		cleaned, fieldErrs := formschema.ValidateValues(elements, values)
		if len(fieldErrs) > 0 {
			return validationError("Some answers are invalid", fieldErrs)
		}

		// The conditional update is the claim: a concurrent submit for the
		// same record matches no row once this one commits.
		now := time.Now()
		claim := tx.Model(&models.UserDetails{}).
			Where("id = ? AND submitted_at IS NULL", details.ID).
			Update("submitted_at", now)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return ErrAlreadySubmitted
		}
		details.SubmittedAt = &now

		if err := tx.Model(&models.Form{}).Where("id = ?", form.ID).
			Update("submissions", gorm.Expr("submissions + 1")).Error; err != nil {
			return err
		}
		submission = models.FormSubmission{
			UserDetailsID: details.ID,
			FormID:        form.ID,
			Content:       models.SubmissionValues(cleaned),
		}
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}
		if err := tx.First(&business, form.BusinessID).Error; err != nil {
			return notFound(err)
		}
		formID := form.ID
		return tx.Create(&models.Notification{
			BusinessID: business.ID,
			FormID:     &formID,
			Content:    fmt.Sprintf("New appointment submission from %s on %s", details.Name, form.Name),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncSubmission()
	s.logger.Info("form submitted", "form_id", form.ID, "user_details_id", details.ID)

	s.notifyOwner(ctx, *form, business, details, elements, submission.Content)
	return &submission, nil
}

func (s *AppointmentService) notifyOwner(ctx context.Context, form models.Form, business models.Business, details models.UserDetails, elements []formschema.Element, values models.SubmissionValues) {
	to, err := s.ownerEmail(ctx, business)
	if err != nil {
		s.logger.Warn("no owner email for submission notice", "error", err, "business_id", business.ID)
		return
	}
	answers := make([]notify.Answer, 0, len(values))
	for _, el := range elements {
		if v, ok := values[el.ID]; ok {
			answers = append(answers, notify.Answer{Label: el.Label(), Value: v})
		}
	}
	msg, err := notify.NewSubmissionEmail(to, notify.NewSubmissionData{
		BusinessName:   business.Name,
		SubmitterName:  details.Name,
		FormName:       form.Name,
		Answers:        answers,
		AppointmentURL: fmt.Sprintf("%s/appointment/%d", s.publicBaseURL, details.ID),
	})
	if err != nil {
		s.logger.Error("render submission email", "error", err)
		return
	}
	id := details.ID
	s.dispatch.Email(ctx, delivery{businessID: business.ID, userDetailsID: &id, kind: KindNewSubmission}, msg)
}

// ownerEmail prefers the business contact address over the login email.
func (s *AppointmentService) ownerEmail(ctx context.Context, business models.Business) (string, error) {
	if business.Email != "" {
		return business.Email, nil
	}
	var user models.User
	if err := s.db.WithContext(ctx).Select("email").First(&user, "id = ?", business.UserID).Error; err != nil {
		return "", notFound(err)
	}
	return user.Email, nil
}

type AppointmentFilter struct {
	ShareURL string
	Status   models.AppointmentStatus
}

// AppointmentRow is a submitter record with the form it came through.
type AppointmentRow struct {
	models.UserDetails
	FormID   uint   `json:"formId"`
	FormName string `json:"formName"`
}

// owned scopes a user_details query to records on forms the owner holds.
func owned(owner uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN forms ON forms.share_url = user_details.form_share_url").
			Where("forms.user_id = ?", owner)
	}
}

func (s *AppointmentService) List(ctx context.Context, owner uuid.UUID, f AppointmentFilter) ([]AppointmentRow, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	q := s.db.WithContext(ctx).Model(&models.UserDetails{}).Scopes(owned(owner)).
		Select("user_details.*, forms.id AS form_id, forms.name AS form_name")
	if f.ShareURL != "" {
		q = q.Where("user_details.form_share_url = ?", f.ShareURL)
	}
	if f.Status != "" {
		q = q.Where("user_details.status = ?", f.Status)
	}
	var rows []AppointmentRow
	err := q.Order("user_details.created_at DESC").Scan(&rows).Error
	return rows, err
}

// AppointmentDetail is one submitter record with its answers labelled by
// the form's current schema.
type AppointmentDetail struct {
	Details     models.UserDetails      `json:"details"`
	Form        models.Form             `json:"form"`
	Submissions []models.FormSubmission `json:"submissions"`
	Labels      map[string]string       `json:"labels"`
}

func (s *AppointmentService) Get(ctx context.Context, owner uuid.UUID, id uint) (*AppointmentDetail, error) {
	details, form, err := s.load(ctx, s.db.WithContext(ctx), owner, id)
	if err != nil {
		return nil, err
	}
	var subs []models.FormSubmission
	if err := s.db.WithContext(ctx).Where("user_details_id = ?", details.ID).Order("created_at").Find(&subs).Error; err != nil {
		return nil, err
	}
	labels := map[string]string{}
	for _, el := range s.forms.renderableElements(*form) {
		labels[el.ID] = el.Label()
	}
	return &AppointmentDetail{Details: *details, Form: *form, Submissions: subs, Labels: labels}, nil
}

func (s *AppointmentService) load(ctx context.Context, db *gorm.DB, owner uuid.UUID, id uint) (*models.UserDetails, *models.Form, error) {
	if owner == uuid.Nil {
		return nil, nil, ErrUnauthenticated
	}
	var details models.UserDetails
	if err := db.Scopes(owned(owner)).Where("user_details.id = ?", id).First(&details).Error; err != nil {
		return nil, nil, notFound(err)
	}
	var form models.Form
	if err := db.Where("share_url = ? AND user_id = ?", details.FormShareURL, owner).First(&form).Error; err != nil {
		return nil, nil, notFound(err)
	}
	return &details, &form, nil
}

// Schedule approves an appointment and tells the submitter.
func (s *AppointmentService) Schedule(ctx context.Context, owner uuid.UUID, id uint, message string) (*models.UserDetails, error) {
	return s.transition(ctx, owner, id, models.StatusScheduled, message)
}

// Cancel rejects an appointment and tells the submitter.
func (s *AppointmentService) Cancel(ctx context.Context, owner uuid.UUID, id uint, message string) (*models.UserDetails, error) {
	return s.transition(ctx, owner, id, models.StatusCancelled, message)
}

// transition writes the new status, then sends notices. A failed notice
// leaves the new status in place.
func (s *AppointmentService) transition(ctx context.Context, owner uuid.UUID, id uint, to models.AppointmentStatus, message string) (*models.UserDetails, error) {
	details, form, err := s.load(ctx, s.db.WithContext(ctx), owner, id)
	if err != nil {
		return nil, err
	}
	from := details.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if err := s.db.WithContext(ctx).Model(details).Update("status", to).Error; err != nil {
		return nil, err
	}
	details.Status = to
	s.metrics.ObserveTransition(string(from), string(to))
	s.logger.Info("appointment status changed", "user_details_id", details.ID, "from", from, "to", to)

	var business models.Business
	if err := s.db.WithContext(ctx).First(&business, form.BusinessID).Error; err != nil {
		s.logger.Error("load business for status notice", "error", err, "form_id", form.ID)
		return details, nil
	}
	s.notifySubmitter(ctx, *details, *form, business, strings.TrimSpace(message))
	return details, nil
}

func (s *AppointmentService) notifySubmitter(ctx context.Context, details models.UserDetails, form models.Form, business models.Business, message string) {
	status, kind := "Scheduled", KindScheduled
	if details.Status == models.StatusCancelled {
		status, kind = "Cancelled", KindCancelled
	}
	data := notify.StatusChangeData{
		SubmitterName:     details.Name,
		BusinessName:      business.Name,
		FormName:          form.Name,
		Status:            status,
		AdditionalMessage: message,
	}
	id := details.ID
	dl := delivery{businessID: business.ID, userDetailsID: &id, kind: kind}

	msg, err := notify.StatusChangeEmail(details.Email, data)
	if err != nil {
		s.logger.Error("render status email", "error", err)
	} else {
		s.dispatch.Email(ctx, dl, msg)
	}
	if business.SMSNotifications {
		s.dispatch.SMS(ctx, dl, details.Phone, notify.StatusChangeSMS(data))
	}
}

// Delete removes a submitter record after its submissions.
func (s *AppointmentService) Delete(ctx context.Context, owner uuid.UUID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		details, _, err := s.load(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		if err := tx.Where("user_details_id = ?", details.ID).Delete(&models.FormSubmission{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.UserDetails{}, details.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// IsClientError reports whether err is the caller's fault rather than a
// dependency failure.
func IsClientError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrFormPublished) ||
		errors.Is(err, ErrFormNotPublished) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadySubmitted)
}
