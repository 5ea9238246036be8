package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCancelled AppointmentStatus = "cancelled"
)

// UserDetails is the submitter record: who filled a form and where their
// appointment stands. Token is the visitor's handle for submitting answers;
// it never leaves the details step.
type UserDetails struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Token        string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"-"`
	FormShareURL string            `gorm:"index;not null" json:"formShareURL"`
	Name         string            `gorm:"not null" json:"name"`
	Email        string            `gorm:"not null" json:"email"`
	Phone        string            `gorm:"type:varchar(10);not null" json:"phone"`
	Status       AppointmentStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	SubmittedAt  *time.Time        `json:"submittedAt,omitempty"`

	Submissions []FormSubmission `gorm:"foreignKey:UserDetailsID" json:"submissions,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (UserDetails) TableName() string { return "user_details" }

// FormSubmission is the immutable set of answers for one completed visit.
type FormSubmission struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	UserDetailsID uint             `gorm:"index;not null" json:"userDetailsId"`
	FormID        uint             `gorm:"index;not null" json:"formId"`
	Content       SubmissionValues `gorm:"type:text;not null" json:"content"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// SubmissionValues maps element id to the raw entered value.
type SubmissionValues map[string]string

func (v SubmissionValues) Value() (driver.Value, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func (v *SubmissionValues) Scan(value interface{}) error {
	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, v)
	case string:
		return json.Unmarshal([]byte(raw), v)
	case nil:
		*v = SubmissionValues{}
		return nil
	}
	return errors.New("type assertion to []byte failed")
}
