package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	model "github.com/arjun-kv/CivicMinutes/models"
	"gorm.io/gorm"
)

// LifecycleFilters narrows the lifecycle item list. Zero values mean "no
// filter" for every field.
type LifecycleFilters struct {
	Status      string
	Department  string
	Search      string
	DateFrom    *time.Time
	DateTo      *time.Time
	HasResponse *bool
}

// LifecycleItem is one issue occurrence in a root issue's history.
type LifecycleItem struct {
	IssueID        string    `json:"issue_id"`
	IssueNo        string    `json:"issue_no"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Priority       string    `json:"priority"`
	MeetingID      string    `json:"meeting_id"`
	MeetingTitle   string    `json:"meeting_title"`
	MeetingDate    string    `json:"meeting_date"`
	Departments    string    `json:"departments"`
	Status         string    `json:"status"`
	Deadline       string    `json:"deadline"`
	ResponseCount  int       `json:"response_count"`
	LatestResponse string    `json:"latest_response,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	meetingDate time.Time
}

// LifecycleResult reconstructs how an issue evolved across meetings.
type LifecycleResult struct {
	RootID           string          `json:"root_id"`
	RootTitle        string          `json:"root_title"`
	ResolutionStatus string          `json:"resolution_status"`
	TotalCount       int             `json:"total_count"`
	FilteredCount    int             `json:"filtered_count"`
	Items            []LifecycleItem `json:"items"`
}

// GetIssueLifecycle resolves the root of the given issue, collects the root
// plus its direct children, applies filters and returns the chain ordered
// oldest first (meeting date, creation time, id).
func (s *IssueService) GetIssueLifecycle(issueID string, filters LifecycleFilters) (*LifecycleResult, error) {
	root, err := s.resolveRootIssue(issueID)
	if err != nil {
		return nil, err
	}

	var children []model.Issue
	if err := s.db.Where("parent_issue_id = ?", root.ID).Find(&children).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch follow-up issues: %w", err)
	}
	chain := append([]model.Issue{*root}, children...)

	items := make([]LifecycleItem, 0, len(chain))
	for _, issue := range chain {
		item, err := s.buildLifecycleItem(issue)
		if err != nil {
			log.Printf("[GetIssueLifecycle] skipping issue %s: %v", issue.ID, err)
			continue
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].meetingDate.Equal(items[j].meetingDate) {
			return items[i].meetingDate.Before(items[j].meetingDate)
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].IssueID < items[j].IssueID
	})

	filtered := make([]LifecycleItem, 0, len(items))
	for _, item := range items {
		if matchesLifecycleFilters(item, filters) {
			filtered = append(filtered, item)
		}
	}

	return &LifecycleResult{
		RootID:           root.ID,
		RootTitle:        root.Title,
		ResolutionStatus: root.ResolutionStatus,
		TotalCount:       len(items),
		FilteredCount:    len(filtered),
		Items:            filtered,
	}, nil
}

// resolveRootIssue walks parent pointers to the root. A seen-set guards
// against cycles in corrupted data; the walk stops at the first repeat.
func (s *IssueService) resolveRootIssue(issueID string) (*model.Issue, error) {
	var issue model.Issue
	if err := s.db.First(&issue, "id = ?", issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("issue %s: %w", issueID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load issue %s: %w", issueID, err)
	}

	seen := map[string]bool{issue.ID: true}
	for issue.ParentIssueID != nil && *issue.ParentIssueID != "" {
		parentID := *issue.ParentIssueID
		if seen[parentID] {
			log.Printf("[resolveRootIssue] parent cycle detected at issue %s", parentID)
			break
		}
		seen[parentID] = true

		var parent model.Issue
		if err := s.db.First(&parent, "id = ?", parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, fmt.Errorf("failed to load parent issue %s: %w", parentID, err)
		}
		issue = parent
	}
	return &issue, nil
}

func (s *IssueService) buildLifecycleItem(issue model.Issue) (LifecycleItem, error) {
	var minute model.Minutes
	if err := s.db.Select("id", "title", "meeting_date").First(&minute, "id = ?", issue.MinutesID).Error; err != nil {
		return LifecycleItem{}, fmt.Errorf("failed to fetch minutes %s: %w", issue.MinutesID, err)
	}

	var links []model.IssueDepartment
	if err := s.db.Preload("Department").Where("issue_id = ?", issue.ID).Find(&links).Error; err != nil {
		return LifecycleItem{}, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	status, deadline, departments := aggregateAssignments(links)

	responseCount := 0
	latest := ""
	for _, link := range links {
		var count int64
		if err := s.db.Model(&model.Response{}).Where("issue_department_id = ?", link.ID).Count(&count).Error; err == nil {
			responseCount += int(count)
		}
		if text := s.latestResponseText(link.ID); text != "" {
			latest = text
		}
	}

	return LifecycleItem{
		IssueID:        issue.ID,
		IssueNo:        issue.IssueNo,
		Title:          issue.Title,
		Description:    issue.Description,
		Location:       issue.Location,
		Priority:       issue.Priority,
		MeetingID:      minute.ID,
		MeetingTitle:   minute.Title,
		MeetingDate:    formatDate(minute.MeetingDate),
		Departments:    departments,
		Status:         status,
		Deadline:       deadline,
		ResponseCount:  responseCount,
		LatestResponse: latest,
		CreatedAt:      issue.CreatedAt,
		meetingDate:    minute.MeetingDate,
	}, nil
}

func matchesLifecycleFilters(item LifecycleItem, f LifecycleFilters) bool {
	if f.Status != "" && item.Status != model.NormalizeStatus(f.Status) {
		return false
	}
	if f.Department != "" &&
		!strings.Contains(strings.ToUpper(item.Departments), strings.ToUpper(strings.TrimSpace(f.Department))) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		haystack := strings.ToLower(strings.Join([]string{
			item.Title, item.Description, item.MeetingTitle, item.IssueNo,
		}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if f.DateFrom != nil && item.meetingDate.Before(dateOnly(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && item.meetingDate.After(dateOnly(*f.DateTo).AddDate(0, 0, 1).Add(-time.Second)) {
		return false
	}
	if f.HasResponse != nil && *f.HasResponse != (item.ResponseCount > 0) {
		return false
	}
	return true
}

// ResolveIssue sets an issue's resolution status. Only resolved and
// unresolved are accepted.
func (s *IssueService) ResolveIssue(issueID, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != model.ResolutionResolved && status != model.ResolutionUnresolved {
		return fmt.Errorf("resolution status %q: %w", status, ErrValidation)
	}

	var issue model.Issue
	if err := s.db.First(&issue, "id = ?", issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("issue %s: %w", issueID, ErrNotFound)
		}
		return fmt.Errorf("failed to load issue %s: %w", issueID, err)
	}

	if err := s.db.Model(&issue).Update("resolution_status", status).Error; err != nil {
		return fmt.Errorf("failed to update resolution status: %w", err)
	}
	return nil
}
