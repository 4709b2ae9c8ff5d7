package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Minutes represents one uploaded meeting-minutes document plus its metadata.
type Minutes struct {
	// ID is a unique identifier for the meeting record, stored as a UUID in the database.
	// In Elasticsearch, it's indexed as a keyword for exact matching.
	ID string `gorm:"type:uuid;primaryKey" json:"id" elastic:"type:keyword"`

	// Title is the meeting's title, indexed as text for full-text search.
	Title string `gorm:"size:200;not null" json:"title" elastic:"type:text,analyzer:standard"`

	// MeetingDate is the date the meeting took place, not the upload date.
	MeetingDate time.Time `json:"meeting_date" elastic:"type:date"`

	// UploadedByID references the user that uploaded the document.
	UploadedByID string `gorm:"type:uuid" json:"uploaded_by"`

	// FileURL is the S3 URL where the original document is stored.
	FileURL string `gorm:"size:500" json:"file_url" elastic:"type:keyword"`

	// ExtractionRaw is a JSONB snapshot of the candidate issues the extraction
	// adapter returned for this document, kept for audit.
	ExtractionRaw datatypes.JSON `json:"extraction_raw,omitempty" elastic:"type:object"`

	CreatedAt time.Time `json:"created_at" elastic:"type:date"`
}

// BeforeCreate assigns a UUID when the database default is unavailable (sqlite).
func (m *Minutes) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
