package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"talktrack-backend/logging"
	"talktrack-backend/models"
	"talktrack-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService struct {
	db          *gorm.DB
	jwtSecret   string
	expiryHours int
	logger      *logging.Logger
}

func NewAuthService(db *gorm.DB, jwtSecret string, expiryHours int, logger *logging.Logger) *AuthService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthService{db: db, jwtSecret: jwtSecret, expiryHours: expiryHours, logger: logger}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an owner account and returns it with a session token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", ErrConflict
	}

	user := models.User{Name: strings.TrimSpace(in.Name), Email: email, Password: in.Password}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", conflict(err)
	}
	token, err := utils.GenerateToken(s.jwtSecret, s.expiryHours, utils.Principal{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("owner registered", "user_id", user.ID)
	return &user, token, nil
}

// Login checks credentials and records the login time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		s.logger.Warn("failed to record login time", "error", err, "user_id", user.ID)
	}
	token, err := utils.GenerateToken(s.jwtSecret, s.expiryHours, utils.Principal{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *AuthService) Me(ctx context.Context, owner uuid.UUID) (*models.User, error) {
	if owner == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", owner).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
