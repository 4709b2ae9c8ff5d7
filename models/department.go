package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department is the canonical registry entry issues can be assigned to.
// Rows are created lazily (get-or-create) during allocation and are treated
// as immutable once referenced.
type Department struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// Name is uppercased and truncated to 100 characters before persistence.
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`

	// Designation is an optional free-form category label (e.g. "Engineering").
	Designation string `gorm:"size:150" json:"designation,omitempty"`

	ContactEmail string `gorm:"size:200" json:"contact_email,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
