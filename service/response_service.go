package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	model "github.com/arjun-kv/CivicMinutes/models"
	"gorm.io/gorm"
)

// SubmitResponse records a department response against an assignment,
// advances the assignment to submitted (also from overdue: a late response
// still counts) and notifies every administrative user. Responses are
// history-preserving: each submission appends a new row.
func (s *IssueService) SubmitResponse(assignmentID, text, attachmentPath string) error {
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" || assignmentID == "undefined" {
		return fmt.Errorf("assignment id is required: %w", ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("response text is required: %w", ErrValidation)
	}

	var link model.IssueDepartment
	if err := s.db.Preload("Issue").Preload("Department").First(&link, "id = ?", assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
		}
		return fmt.Errorf("failed to load assignment %s: %w", assignmentID, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		resp := model.Response{
			IssueDepartmentID: link.ID,
			ResponseText:      text,
			AttachmentPath:    attachmentPath,
			SubmittedAt:       time.Now(),
		}
		if err := tx.Create(&resp).Error; err != nil {
			return fmt.Errorf("failed to create response: %w", err)
		}

		if err := tx.Model(&link).Update("status", model.StatusSubmitted).Error; err != nil {
			return fmt.Errorf("failed to update assignment status: %w", err)
		}

		var admins []model.User
		if err := tx.Where("role IN ?",
			[]string{string(model.RoleDPO), string(model.RoleCollector)}).Find(&admins).Error; err != nil {
			return fmt.Errorf("failed to load administrative users: %w", err)
		}

		for _, admin := range admins {
			notif := model.Notification{
				UserID:            admin.ID,
				IssueDepartmentID: &link.ID,
				Message: fmt.Sprintf("Response Received: %s responded to Issue #%s",
					link.Department.Name, link.Issue.IssueNo),
			}
			if err := tx.Create(&notif).Error; err != nil {
				return fmt.Errorf("failed to create response notification: %w", err)
			}
		}

		log.Printf("[SubmitResponse] response recorded for assignment %s (%s)", link.ID, link.Department.Name)
		return nil
	})
}
