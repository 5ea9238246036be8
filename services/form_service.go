package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"talktrack-backend/designer"
	"talktrack-backend/formschema"
	"talktrack-backend/logging"
	"talktrack-backend/metrics"
	"talktrack-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const minFormNameLength = 4

type FormService struct {
	db       *gorm.DB
	sessions *designer.Registry
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

func NewFormService(db *gorm.DB, sessions *designer.Registry, m *metrics.Metrics, logger *logging.Logger) *FormService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FormService{db: db, sessions: sessions, metrics: m, logger: logger}
}

type CreateFormInput struct {
	Name        string
	Description string
}

// Create starts an empty, unpublished form under the owner's business.
func (s *FormService) Create(ctx context.Context, owner uuid.UUID, in CreateFormInput) (*models.Form, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) < minFormNameLength {
		return nil, validationError("Invalid form", map[string]string{"name": "Must be at least 4 characters"})
	}
	var business models.Business
	if err := s.db.WithContext(ctx).Where("user_id = ?", owner).First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationError("Create your business profile before adding forms", nil)
		}
		return nil, err
	}

	form := models.Form{
		UserID:      owner,
		BusinessID:  business.ID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Content:     "[]",
	}
	if err := s.db.WithContext(ctx).Create(&form).Error; err != nil {
		return nil, err
	}
	s.logger.Info("form created", "form_id", form.ID, "user_id", owner)
	return &form, nil
}

func (s *FormService) List(ctx context.Context, owner uuid.UUID) ([]models.Form, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	var forms []models.Form
	err := s.db.WithContext(ctx).Where("user_id = ?", owner).Order("created_at DESC").Find(&forms).Error
	return forms, err
}

func (s *FormService) Get(ctx context.Context, owner uuid.UUID, id uint) (*models.Form, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	var form models.Form
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).First(&form).Error; err != nil {
		return nil, notFound(err)
	}
	return &form, nil
}

// UpdateContent replaces the stored element list. Published forms are
// frozen and the content must pass strict schema checks.
func (s *FormService) UpdateContent(ctx context.Context, owner uuid.UUID, id uint, content string) (*models.Form, error) {
	els, err := formschema.Parse(content)
	if err != nil {
		return nil, validationError("Invalid form content", map[string]string{"content": err.Error()})
	}
	normalized, err := formschema.Serialize(els)
	if err != nil {
		return nil, err
	}

	form, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if form.Published {
		return nil, ErrFormPublished
	}
	res := s.db.WithContext(ctx).Model(&models.Form{}).
		Where("id = ? AND user_id = ? AND published = ?", id, owner, false).
		Update("content", normalized)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Published between the read and the write.
		return nil, ErrFormPublished
	}
	form.Content = normalized
	return form, nil
}

// Publish makes the form's public link live and freezes its content.
// Publishing an already published form is a no-op.
func (s *FormService) Publish(ctx context.Context, owner uuid.UUID, id uint) (*models.Form, error) {
	form, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if form.Published {
		return form, nil
	}
	if _, err := formschema.Parse(form.Content); err != nil {
		return nil, validationError("Form content is invalid and cannot be published", map[string]string{"content": err.Error()})
	}
	if err := s.db.WithContext(ctx).Model(form).Update("published", true).Error; err != nil {
		return nil, err
	}
	form.Published = true
	if s.sessions != nil {
		s.sessions.CloseForm(form.ID)
	}
	s.logger.Info("form published", "form_id", form.ID, "share_url", form.ShareURL)
	return form, nil
}

// Delete removes the form along with its submitter records, submissions
// and notifications.
func (s *FormService) Delete(ctx context.Context, owner uuid.UUID, id uint) error {
	form, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		detailIDs := tx.Model(&models.UserDetails{}).Select("id").Where("form_share_url = ?", form.ShareURL)
		if err := tx.Where("form_id = ? OR user_details_id IN (?)", form.ID, detailIDs).Delete(&models.FormSubmission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_share_url = ?", form.ShareURL).Delete(&models.UserDetails{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", form.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Form{}, form.ID).Error
	})
	if err != nil {
		return err
	}
	if s.sessions != nil {
		s.sessions.CloseForm(form.ID)
	}
	s.logger.Info("form deleted", "form_id", form.ID)
	return nil
}

// PublicForm is what a visitor receives for a published share link.
type PublicForm struct {
	ShareURL    string               `json:"shareURL"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Elements    []formschema.Element `json:"elements"`
	Business    PublicProfile        `json:"business"`
}

// FetchPublic loads a published form and counts the visit.
func (s *FormService) FetchPublic(ctx context.Context, shareURL string) (*PublicForm, error) {
	pf, formID, err := s.loadPublic(ctx, shareURL)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Form{}).Where("id = ?", formID).
		Update("total_appointments", gorm.Expr("total_appointments + 1")).Error; err != nil {
		return nil, err
	}
	s.metrics.IncVisit()
	return pf, nil
}

// LoadPublic is FetchPublic without counting a visit. Used when a page is
// re-rendered after a failed submit.
func (s *FormService) LoadPublic(ctx context.Context, shareURL string) (*PublicForm, error) {
	pf, _, err := s.loadPublic(ctx, shareURL)
	return pf, err
}

func (s *FormService) loadPublic(ctx context.Context, shareURL string) (*PublicForm, uint, error) {
	var form models.Form
	if err := s.db.WithContext(ctx).Where("share_url = ? AND published = ?", shareURL, true).First(&form).Error; err != nil {
		return nil, 0, notFound(err)
	}
	var business models.Business
	if err := s.db.WithContext(ctx).First(&business, form.BusinessID).Error; err != nil {
		return nil, 0, notFound(err)
	}
	return &PublicForm{
		ShareURL:    form.ShareURL,
		Name:        form.Name,
		Description: form.Description,
		Elements:    s.renderableElements(form),
		Business:    publicProfile(business),
	}, form.ID, nil
}

// renderableElements parses stored content, dropping elements this build
// cannot render. Each drop is a schema defect worth an error log.
func (s *FormService) renderableElements(form models.Form) []formschema.Element {
	els, skipped := formschema.ParseLenient(form.Content)
	for _, err := range skipped {
		s.logger.Error("skipping unrenderable form element", "error", err, "form_id", form.ID)
	}
	if els == nil {
		els = []formschema.Element{}
	}
	return els
}

func (s *FormService) publishedByShareURL(tx *gorm.DB, shareURL string) (*models.Form, error) {
	var form models.Form
	if err := tx.Where("share_url = ?", shareURL).First(&form).Error; err != nil {
		return nil, notFound(err)
	}
	if !form.Published {
		return nil, ErrFormNotPublished
	}
	return &form, nil
}
