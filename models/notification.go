package models

import "time"

type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID uint      `gorm:"index;not null" json:"businessId"`
	FormID     *uint     `gorm:"index" json:"formId,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"default:false;index" json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}
