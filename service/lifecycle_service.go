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

// AssignmentView is the flat representation returned by the assignment lists.
type AssignmentView struct {
	ID         string `json:"id"`
	IssueID    string `json:"issue_id"`
	IssueNo    string `json:"issue_no"`
	Issue      string `json:"issue"`
	Department string `json:"department"`
	Location   string `json:"location"`
	Priority   string `json:"priority"`
	Deadline   string `json:"deadline"`
	Status     string `json:"status"`
	Response   string `json:"response,omitempty"`
}

// IssueAggregate is the grouped (per-issue) administrative view.
type IssueAggregate struct {
	ID               string `json:"id"`
	IssueNo          string `json:"issue_no"`
	Title            string `json:"title"`
	Location         string `json:"location"`
	Priority         string `json:"priority"`
	MeetingTitle     string `json:"meeting_title"`
	MeetingDate      string `json:"meeting_date"`
	Status           string `json:"status"`
	Deadline         string `json:"deadline"`
	Departments      string `json:"departments"`
	ResolutionStatus string `json:"resolution_status"`
}

// SweepOverdue marks every pending assignment whose deadline date is strictly
// before today as overdue. One set-based update, idempotent, safe to re-run
// concurrently. It runs as a precondition of every assignment read path.
func (s *IssueService) SweepOverdue() (int64, error) {
	today := dateOnly(time.Now())
	res := s.db.Model(&model.IssueDepartment{}).
		Where("status = ? AND deadline_date < ?", model.StatusPending, today).
		Update("status", model.StatusOverdue)
	if res.Error != nil {
		return 0, fmt.Errorf("overdue sweep failed: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("[SweepOverdue] %d assignments moved to overdue", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// ListAssignments returns all assignments, or only those of one department
// when deptName is non-empty (case-insensitive). The overdue sweep runs
// first; results are ordered newest issue first.
func (s *IssueService) ListAssignments(deptName string) ([]AssignmentView, error) {
	if _, err := s.SweepOverdue(); err != nil {
		return nil, err
	}

	q := s.db.Preload("Issue").Preload("Department").
		Joins("JOIN issues ON issues.id = issue_departments.issue_id").
		Order("issues.created_at DESC, issues.id DESC")
	if trimmed := strings.TrimSpace(deptName); trimmed != "" {
		q = q.Joins("JOIN departments ON departments.id = issue_departments.department_id").
			Where("UPPER(departments.name) = ?", strings.ToUpper(trimmed))
	}

	var links []model.IssueDepartment
	if err := q.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	views := make([]AssignmentView, 0, len(links))
	for _, link := range links {
		views = append(views, AssignmentView{
			ID:         link.ID,
			IssueID:    link.IssueID,
			IssueNo:    link.Issue.IssueNo,
			Issue:      link.Issue.Title,
			Department: link.Department.Name,
			Location:   link.Issue.Location,
			Priority:   link.Issue.Priority,
			Deadline:   formatDate(link.DeadlineDate),
			Status:     model.NormalizeStatus(link.Status),
			Response:   s.latestResponseText(link.ID),
		})
	}
	return views, nil
}

// ListIssuesGrouped returns one aggregate row per issue, optionally filtered
// by meeting-date range. Sweeps overdue first; newest issues first.
func (s *IssueService) ListIssuesGrouped(from, to *time.Time) ([]IssueAggregate, error) {
	if _, err := s.SweepOverdue(); err != nil {
		return nil, err
	}

	q := s.db.Joins("JOIN minutes ON minutes.id = issues.minutes_id").
		Order("issues.created_at DESC, issues.id DESC")
	if from != nil {
		q = q.Where("minutes.meeting_date >= ?", dateOnly(*from))
	}
	if to != nil {
		q = q.Where("minutes.meeting_date <= ?", dateOnly(*to))
	}

	var issues []model.Issue
	if err := q.Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch issues: %w", err)
	}

	aggregates := make([]IssueAggregate, 0, len(issues))
	for _, issue := range issues {
		var minute model.Minutes
		if err := s.db.Select("title", "meeting_date").First(&minute, "id = ?", issue.MinutesID).Error; err != nil {
			log.Printf("[ListIssuesGrouped] failed to fetch minutes %s: %v", issue.MinutesID, err)
			continue
		}

		var links []model.IssueDepartment
		if err := s.db.Preload("Department").Where("issue_id = ?", issue.ID).Find(&links).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch assignments for issue %s: %w", issue.ID, err)
		}

		status, deadline, departments := aggregateAssignments(links)
		aggregates = append(aggregates, IssueAggregate{
			ID:               issue.ID,
			IssueNo:          issue.IssueNo,
			Title:            issue.Title,
			Location:         issue.Location,
			Priority:         issue.Priority,
			MeetingTitle:     minute.Title,
			MeetingDate:      formatDate(minute.MeetingDate),
			Status:           status,
			Deadline:         deadline,
			Departments:      departments,
			ResolutionStatus: issue.ResolutionStatus,
		})
	}
	return aggregates, nil
}

// aggregateAssignments derives an issue's display status, earliest deadline
// and department label from its assignment set. Overdue dominates, then
// submitted, then pending.
func aggregateAssignments(links []model.IssueDepartment) (status, deadline, departments string) {
	if len(links) == 0 {
		return model.StatusPending, "N/A", ""
	}

	anyOverdue, anySubmitted := false, false
	var earliest time.Time
	names := make([]string, 0, len(links))
	for i, link := range links {
		switch model.NormalizeStatus(link.Status) {
		case model.StatusOverdue:
			anyOverdue = true
		case model.StatusSubmitted:
			anySubmitted = true
		}
		if i == 0 || link.DeadlineDate.Before(earliest) {
			earliest = link.DeadlineDate
		}
		names = append(names, link.Department.Name)
	}

	status = model.StatusPending
	if anySubmitted {
		status = model.StatusSubmitted
	}
	if anyOverdue {
		status = model.StatusOverdue
	}
	return status, formatDate(earliest), strings.Join(names, ", ")
}

// latestResponseText returns the newest response text for an assignment, or
// empty when none exists.
func (s *IssueService) latestResponseText(assignmentID string) string {
	var resp model.Response
	err := s.db.Where("issue_department_id = ?", assignmentID).
		Order("submitted_at DESC, id DESC").First(&resp).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[latestResponseText] failed to fetch response for %s: %v", assignmentID, err)
		}
		return ""
	}
	return resp.ResponseText
}
