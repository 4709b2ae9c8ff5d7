package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Issue is a single action item extracted from a Minutes document. The pair
// (minutes_id, title) is unique so re-allocating the same extraction payload
// updates rows instead of duplicating them.
type Issue struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id" elastic:"type:keyword"`

	MinutesID string `gorm:"type:uuid;not null;uniqueIndex:idx_issues_minutes_title" json:"minutes_id" elastic:"type:keyword"`

	// IssueNo is the display label from the source document (e.g. "12"),
	// not a database key.
	IssueNo string `gorm:"size:20" json:"issue_no" elastic:"type:keyword"`

	Title string `gorm:"size:300;not null;uniqueIndex:idx_issues_minutes_title" json:"title" elastic:"type:text,analyzer:standard"`

	Description string `json:"description" elastic:"type:text,analyzer:standard"`

	Location string `gorm:"size:200" json:"location" elastic:"type:text,analyzer:standard"`

	// Priority is one of High/Medium/Low, see NormalizePriority.
	Priority string `gorm:"size:10" json:"priority" elastic:"type:keyword"`

	// ParentIssueID links a follow-up issue to its root. The tree is flattened
	// to depth one at link time: a parent never has a parent of its own.
	ParentIssueID *string `gorm:"type:uuid" json:"parent_issue_id,omitempty" elastic:"type:keyword"`

	// ResolutionStatus marks whether the underlying real-world issue is
	// considered closed, independent of any department's response state.
	ResolutionStatus string `gorm:"size:20;default:unresolved" json:"resolution_status" elastic:"type:keyword"`

	CreatedAt time.Time `json:"created_at" elastic:"type:date"`
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.ResolutionStatus == "" {
		i.ResolutionStatus = ResolutionUnresolved
	}
	return nil
}
