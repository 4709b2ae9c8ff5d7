package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IssueDepartment is one department's responsibility for one Issue: the
// lifecycle state holder. Unique per (issue_id, department_id).
type IssueDepartment struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	IssueID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_issue_department" json:"issue_id"`
	DepartmentID string    `gorm:"type:uuid;not null;uniqueIndex:idx_issue_department" json:"department_id"`
	DeadlineDate time.Time `json:"deadline_date"`
	Status       string    `gorm:"size:20;default:pending" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Issue      Issue      `gorm:"foreignKey:IssueID" json:"-"`
	Department Department `gorm:"foreignKey:DepartmentID" json:"-"`
}

func (a *IssueDepartment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}
