package models

import (
	"time"

	"github.com/google/uuid"
)

// Business is the owner's public profile. Each user has at most one.
type Business struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Name           string    `gorm:"not null" json:"name"`
	Description    string    `json:"description"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phoneNumber"`
	Address        string    `json:"address"`
	OperatingHours JSONB     `gorm:"type:text" json:"operatingHours"`
	LogoURL        string    `json:"logoURL"`

	// Notify by SMS as well as email when an appointment changes.
	SMSNotifications bool `gorm:"default:false" json:"smsNotifications"`

	Forms         []Form         `gorm:"foreignKey:BusinessID" json:"-"`
	Notifications []Notification `gorm:"foreignKey:BusinessID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
