package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Response is one department submission against an assignment. Rows are
// append-only; the newest submitted_at is the one readers see.
type Response struct {
	ID                string    `gorm:"type:uuid;primaryKey" json:"id"`
	IssueDepartmentID string    `gorm:"type:uuid;not null" json:"issue_department_id"`
	ResponseText      string    `gorm:"not null" json:"response_text"`
	AttachmentPath    string    `gorm:"size:500" json:"attachment_path,omitempty"`
	SubmittedAt       time.Time `json:"submitted_at"`
}

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
