package models

import "time"

// DeliveryLog records every outbound email or SMS attempt.
type DeliveryLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BusinessID    uint      `gorm:"index;not null" json:"businessId"`
	UserDetailsID *uint     `gorm:"index" json:"userDetailsId,omitempty"`
	Kind          string    `gorm:"type:varchar(30)" json:"kind"`    // new_submission, scheduled, cancelled, digest
	Channel       string    `gorm:"type:varchar(20)" json:"channel"` // email, sms
	Recipient     string    `json:"recipient"`
	Status        string    `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage  string    `gorm:"type:text" json:"errorMessage,omitempty"`
	SentAt        time.Time `json:"sentAt"`
}

// All lists every model for AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&User{}, &Business{}, &Form{}, &UserDetails{}, &FormSubmission{}, &Notification{}, &DeliveryLog{},
	}
}
