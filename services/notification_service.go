package services

import (
	"context"

	"talktrack-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxNotifications = 100

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) businessID(ctx context.Context, owner uuid.UUID) (uint, error) {
	if owner == uuid.Nil {
		return 0, ErrUnauthenticated
	}
	var b models.Business
	if err := s.db.WithContext(ctx).Select("id").Where("user_id = ?", owner).First(&b).Error; err != nil {
		return 0, notFound(err)
	}
	return b.ID, nil
}

// List returns the newest notifications for the owner's business.
func (s *NotificationService) List(ctx context.Context, owner uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	id, err := s.businessID(ctx, owner)
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("business_id = ?", id)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	err = q.Order("created_at DESC, id DESC").Limit(maxNotifications).Find(&out).Error
	return out, err
}

func (s *NotificationService) UnreadCount(ctx context.Context, owner uuid.UUID) (int64, error) {
	id, err := s.businessID(ctx, owner)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("business_id = ? AND is_read = ?", id, false).Count(&n).Error
	return n, err
}

func (s *NotificationService) MarkRead(ctx context.Context, owner uuid.UUID, notificationID uint) error {
	id, err := s.businessID(ctx, owner)
	if err != nil {
		return err
	}
	var n models.Notification
	if err := s.db.WithContext(ctx).Where("id = ? AND business_id = ?", notificationID, id).First(&n).Error; err != nil {
		return notFound(err)
	}
	return s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error
}

// MarkAllRead flips every unread notification and reports how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, owner uuid.UUID) (int64, error) {
	id, err := s.businessID(ctx, owner)
	if err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("business_id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
