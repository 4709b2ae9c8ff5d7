package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types derived from message content at read time.
const (
	NotificationAssign   = "assign"
	NotificationResponse = "response"
	NotificationDeadline = "deadline"
	NotificationGeneral  = "general"
)

// Notification is one append-only inbox entry for a user. Only the read flag
// is ever mutated after creation.
type Notification struct {
	ID                string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string    `gorm:"type:uuid;not null" json:"user_id"`
	IssueDepartmentID *string   `gorm:"type:uuid" json:"issue_department_id,omitempty"`
	Message           string    `gorm:"not null" json:"message"`
	IsRead            bool      `gorm:"default:false" json:"is_read"`
	CreatedAt         time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// DeriveType classifies the notification from its message text. The type is
// not persisted; it is computed whenever the inbox is read.
func (n *Notification) DeriveType() string {
	msg := strings.ToLower(n.Message)
	switch {
	case strings.Contains(msg, "assigned"):
		return NotificationAssign
	case strings.Contains(msg, "response"):
		return NotificationResponse
	case strings.Contains(msg, "overdue") || strings.Contains(msg, "deadline"):
		return NotificationDeadline
	default:
		return NotificationGeneral
	}
}
