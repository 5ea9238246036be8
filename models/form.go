package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Form is an owner-authored intake schema. Content holds the serialized
// element list and is frozen once Published is set.
type Form struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	BusinessID  uint      `gorm:"index;not null" json:"businessId"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Content     string    `gorm:"type:text;not null;default:'[]'" json:"content"`
	ShareURL    string    `gorm:"uniqueIndex;not null" json:"shareURL"`
	Published   bool      `gorm:"default:false" json:"published"`

	// TotalAppointments counts public visits to the form.
	TotalAppointments int `gorm:"default:0" json:"totalAppointments"`
	Submissions       int `gorm:"default:0" json:"submissions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *Form) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ShareURL == "" {
		f.ShareURL = uuid.NewString()
	}
	if f.Content == "" {
		f.Content = "[]"
	}
	return
}
