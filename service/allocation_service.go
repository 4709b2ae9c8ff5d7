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

// CandidateIssue is one extracted action item awaiting allocation. The legacy
// single Department string (comma separated) and the Departments list are
// both accepted; parseDepartments merges them.
type CandidateIssue struct {
	IssueNo       string   `json:"issue_no"`
	Title         string   `json:"issue"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	Priority      string   `json:"priority"`
	Departments   []string `json:"departments,omitempty"`
	Department    string   `json:"department,omitempty"`
	Deadline      string   `json:"deadline"`
	ParentIssueID string   `json:"parent_issue_id,omitempty"`
}

// AllocateAll converts candidate issues into Issue and IssueDepartment rows
// for one Minutes record. The whole batch runs in a single transaction:
// a mid-loop failure leaves no half-allocated meeting behind.
//
// Re-running with identical candidates is a no-op for row counts and
// notifications: issues upsert on (minutes, title), assignments upsert on
// (issue, department), and only truly new assignments count toward the
// per-department notification totals.
func (s *IssueService) AllocateAll(minutesID string, candidates []CandidateIssue) (int, error) {
	if strings.TrimSpace(minutesID) == "" {
		return 0, fmt.Errorf("minutes id is required: %w", ErrValidation)
	}

	var minute model.Minutes
	if err := s.db.First(&minute, "id = ?", minutesID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("minutes %s: %w", minutesID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to load minutes %s: %w", minutesID, err)
	}

	allocated := 0
	newPerDept := make(map[string]int)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, cand := range candidates {
			title := strings.TrimSpace(cand.Title)
			if title == "" {
				log.Printf("[AllocateAll] skipping candidate with empty title (issue_no=%s)", cand.IssueNo)
				continue
			}

			parentID, err := resolveParentID(tx, cand.ParentIssueID)
			if err != nil {
				return err
			}

			issue := model.Issue{MinutesID: minute.ID, Title: title}
			res := tx.Where("minutes_id = ? AND title = ?", minute.ID, title).
				Attrs(model.Issue{ResolutionStatus: model.ResolutionUnresolved}).
				FirstOrCreate(&issue)
			if res.Error != nil {
				return fmt.Errorf("failed to upsert issue %q: %w", title, res.Error)
			}

			updates := map[string]interface{}{
				"issue_no":    strings.TrimSpace(cand.IssueNo),
				"description": cand.Description,
				"location":    strings.TrimSpace(cand.Location),
				"priority":    model.NormalizePriority(cand.Priority),
			}
			if parentID != nil {
				updates["parent_issue_id"] = *parentID
			}
			if err := tx.Model(&issue).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update issue %q: %w", title, err)
			}

			deadline := parseDeadline(cand.Deadline, time.Now())

			for _, name := range parseDepartments(cand) {
				dept := model.Department{Name: name}
				if err := tx.Where("name = ?", name).FirstOrCreate(&dept).Error; err != nil {
					return fmt.Errorf("failed to get or create department %q: %w", name, err)
				}

				link := model.IssueDepartment{IssueID: issue.ID, DepartmentID: dept.ID}
				linkRes := tx.Where("issue_id = ? AND department_id = ?", issue.ID, dept.ID).
					Attrs(model.IssueDepartment{DeadlineDate: deadline, Status: model.StatusPending}).
					FirstOrCreate(&link)
				if linkRes.Error != nil {
					return fmt.Errorf("failed to upsert assignment for %q/%s: %w", title, name, linkRes.Error)
				}

				if linkRes.RowsAffected > 0 {
					newPerDept[dept.ID]++
				} else if err := tx.Model(&link).Updates(map[string]interface{}{
					"deadline_date": deadline,
					"status":        model.StatusPending,
				}).Error; err != nil {
					return fmt.Errorf("failed to refresh assignment for %q/%s: %w", title, name, err)
				}
			}
			allocated++
		}

		return notifyAssignedDepartments(tx, newPerDept)
	})
	if err != nil {
		return 0, err
	}

	// Best-effort search indexing; never fails the allocation.
	s.indexMinutesIssues(minute)

	log.Printf("[AllocateAll] allocated %d issues for minutes %s (%d departments notified)",
		allocated, minute.ID, len(newPerDept))
	return allocated, nil
}

// AllocateSingle allocates exactly one candidate with the same upsert
// semantics as AllocateAll.
func (s *IssueService) AllocateSingle(minutesID string, cand CandidateIssue) (int, error) {
	return s.AllocateAll(minutesID, []CandidateIssue{cand})
}

// resolveParentID flattens follow-up links to depth one: when the requested
// parent itself has a parent, the link is re-pointed at that root. A missing
// parent drops the link rather than failing the allocation.
func resolveParentID(tx *gorm.DB, rawID string) (*string, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, nil
	}

	var parent model.Issue
	if err := tx.First(&parent, "id = ?", rawID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[resolveParentID] parent issue %s not found, dropping link", rawID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load parent issue %s: %w", rawID, err)
	}

	if parent.ParentIssueID != nil && *parent.ParentIssueID != "" {
		return parent.ParentIssueID, nil
	}
	return &parent.ID, nil
}

// notifyAssignedDepartments creates one aggregate notification per user of
// each department that received new assignments, excluding administrative
// roles.
func notifyAssignedDepartments(tx *gorm.DB, newPerDept map[string]int) error {
	for deptID, count := range newPerDept {
		var users []model.User
		if err := tx.Where("department_id = ? AND role NOT IN ?", deptID,
			[]string{string(model.RoleDPO), string(model.RoleCollector)}).Find(&users).Error; err != nil {
			return fmt.Errorf("failed to load users for department %s: %w", deptID, err)
		}

		for _, u := range users {
			notif := model.Notification{
				UserID:  u.ID,
				Message: fmt.Sprintf("ACTION REQUIRED: %d new issues have been assigned to your department.", count),
			}
			if err := tx.Create(&notif).Error; err != nil {
				return fmt.Errorf("failed to create assignment notification for user %s: %w", u.ID, err)
			}
		}
	}
	return nil
}

// parseDepartments merges the list and comma-joined department designations
// into a deduplicated set of uppercased names, defaulting to GENERAL.
func parseDepartments(cand CandidateIssue) []string {
	raw := make([]string, 0, len(cand.Departments)+1)
	raw = append(raw, cand.Departments...)
	if cand.Department != "" {
		raw = append(raw, strings.Split(cand.Department, ",")...)
	}

	seen := make(map[string]bool)
	var names []string
	for _, r := range raw {
		name := strings.ToUpper(strings.TrimSpace(r))
		if name == "" || seen[name] {
			continue
		}
		// Truncate on rune boundaries: byte slicing would split multi-byte
		// names (the extractor handles Malayalam) into invalid UTF-8.
		if runes := []rune(name); len(runes) > departmentNameMax {
			name = string(runes[:departmentNameMax])
		}
		seen[name] = true
		names = append(names, name)
	}

	if len(names) == 0 {
		names = []string{"GENERAL"}
	}
	return names
}

// parseDeadline parses a DD-MM-YYYY deadline. Missing or unparseable values
// fall back to today plus the grace period.
func parseDeadline(raw string, now time.Time) time.Time {
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		if d, err := time.Parse(DateLayout, trimmed); err == nil {
			return d
		}
		log.Printf("[parseDeadline] unparseable deadline %q, applying default", raw)
	}
	return dateOnly(now).AddDate(0, 0, deadlineGraceDays)
}
