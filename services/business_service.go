package services

import (
	"context"
	"io"

	"talktrack-backend/logging"
	"talktrack-backend/models"
	"talktrack-backend/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessService struct {
	db     *gorm.DB
	logos  *storage.LogoStore
	logger *logging.Logger
}

func NewBusinessService(db *gorm.DB, logos *storage.LogoStore, logger *logging.Logger) *BusinessService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BusinessService{db: db, logos: logos, logger: logger}
}

type BusinessInput struct {
	Name             string
	Description      string
	Email            string
	PhoneNumber      string
	Address          string
	OperatingHours   map[string]string
	SMSNotifications bool
}

func (in BusinessInput) apply(b *models.Business) {
	b.Name = in.Name
	b.Description = in.Description
	b.Email = in.Email
	b.PhoneNumber = in.PhoneNumber
	b.Address = in.Address
	b.OperatingHours = models.JSONB(in.OperatingHours)
	b.SMSNotifications = in.SMSNotifications
}

// merge is apply for updates: empty optional fields keep the stored value.
func (in BusinessInput) merge(b *models.Business) {
	if in.Name != "" {
		b.Name = in.Name
	}
	if in.Description != "" {
		b.Description = in.Description
	}
	if in.Email != "" {
		b.Email = in.Email
	}
	if in.PhoneNumber != "" {
		b.PhoneNumber = in.PhoneNumber
	}
	if in.Address != "" {
		b.Address = in.Address
	}
	if in.OperatingHours != nil {
		b.OperatingHours = models.JSONB(in.OperatingHours)
	}
	b.SMSNotifications = in.SMSNotifications
}

// Create registers the owner's business. An owner has at most one.
func (s *BusinessService) Create(ctx context.Context, owner uuid.UUID, in BusinessInput) (*models.Business, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Business{}).Where("user_id = ?", owner).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrConflict
	}
	b := models.Business{UserID: owner}
	in.apply(&b)
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, conflict(err)
	}
	s.logger.Info("business created", "business_id", b.ID, "user_id", owner)
	return &b, nil
}

func (s *BusinessService) Get(ctx context.Context, owner uuid.UUID) (*models.Business, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	var b models.Business
	if err := s.db.WithContext(ctx).Where("user_id = ?", owner).First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *BusinessService) Update(ctx context.Context, owner uuid.UUID, in BusinessInput) (*models.Business, error) {
	b, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	in.merge(b)
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// UploadLogo stores the image and points the business at it.
func (s *BusinessService) UploadLogo(ctx context.Context, owner uuid.UUID, contentType string, size int64, body io.Reader) (*models.Business, error) {
	b, err := s.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	url, err := s.logos.Upload(ctx, b.ID, contentType, size, body)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(b).Update("logo_url", url).Error; err != nil {
		return nil, err
	}
	b.LogoURL = url
	return b, nil
}

// PublicProfile is the business header shown on a public form.
type PublicProfile struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Email          string            `json:"email"`
	PhoneNumber    string            `json:"phoneNumber"`
	Address        string            `json:"address"`
	OperatingHours map[string]string `json:"operatingHours"`
	LogoURL        string            `json:"logoURL"`
}

func publicProfile(b models.Business) PublicProfile {
	return PublicProfile{
		Name:           b.Name,
		Description:    b.Description,
		Email:          b.Email,
		PhoneNumber:    b.PhoneNumber,
		Address:        b.Address,
		OperatingHours: b.OperatingHours,
		LogoURL:        b.LogoURL,
	}
}
