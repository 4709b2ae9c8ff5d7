package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/arjun-kv/CivicMinutes/models"
)

func TestAllocateAll_CreatesIssuesAndAssignments(t *testing.T) {
	svc := newTestService(t)

	minute := seedMinutes(t, svc.db, "Ward Committee March", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	candidates := []CandidateIssue{
		{
			IssueNo:     "12",
			Title:       "Repair streetlights on MG Road",
			Description: "Several lights reported out",
			Location:    "MG Road",
			Priority:    "high",
			Departments: []string{"Electrical", "roads"},
			Deadline:    "20-03-2025",
		},
		{
			IssueNo:    "13",
			Title:      "Clear blocked storm drain",
			Department: "Sanitation",
			Deadline:   "25-03-2025",
		},
	}

	allocated, err := svc.AllocateAll(minute.ID, candidates)
	require.NoError(t, err)
	assert.Equal(t, 2, allocated)

	var issues []model.Issue
	require.NoError(t, svc.db.Order("issue_no").Find(&issues).Error)
	require.Len(t, issues, 2)
	assert.Equal(t, "Repair streetlights on MG Road", issues[0].Title)
	assert.Equal(t, model.PriorityHigh, issues[0].Priority)
	assert.Equal(t, model.ResolutionUnresolved, issues[0].ResolutionStatus)
	assert.Equal(t, model.PriorityMedium, issues[1].Priority)

	// Department names are uppercased and deduplicated.
	var depts []model.Department
	require.NoError(t, svc.db.Order("name").Find(&depts).Error)
	require.Len(t, depts, 3)
	assert.Equal(t, "ELECTRICAL", depts[0].Name)
	assert.Equal(t, "ROADS", depts[1].Name)
	assert.Equal(t, "SANITATION", depts[2].Name)

	var links []model.IssueDepartment
	require.NoError(t, svc.db.Where("issue_id = ?", issues[0].ID).Find(&links).Error)
	require.Len(t, links, 2)
	for _, link := range links {
		assert.Equal(t, model.StatusPending, link.Status)
		assert.Equal(t, "20-03-2025", formatDate(link.DeadlineDate.UTC()))
	}
}

func TestAllocateAll_NotifiesOnlyDepartmentUsers(t *testing.T) {
	svc := newTestService(t)

	minute := seedMinutes(t, svc.db, "Council Meeting", time.Now())
	dept := seedDepartment(t, svc.db, "WATER")
	worker := seedUser(t, svc.db, "water_clerk", model.RoleDepartment, &dept.ID)
	admin := seedUser(t, svc.db, "dpo_admin", model.RoleDPO, &dept.ID)

	_, err := svc.AllocateAll(minute.ID, []CandidateIssue{
		{IssueNo: "1", Title: "Fix leaking main", Department: "Water"},
		{IssueNo: "2", Title: "Test water quality", Department: "Water"},
	})
	require.NoError(t, err)

	var workerNotifs []model.Notification
	require.NoError(t, svc.db.Where("user_id = ?", worker.ID).Find(&workerNotifs).Error)
	require.Len(t, workerNotifs, 1)
	assert.Equal(t, "ACTION REQUIRED: 2 new issues have been assigned to your department.", workerNotifs[0].Message)
	assert.Equal(t, model.NotificationAssign, workerNotifs[0].DeriveType())

	var adminNotifs []model.Notification
	require.NoError(t, svc.db.Where("user_id = ?", admin.ID).Find(&adminNotifs).Error)
	assert.Empty(t, adminNotifs)
}

func TestAllocateAll_Idempotent(t *testing.T) {
	svc := newTestService(t)

	minute := seedMinutes(t, svc.db, "Council Meeting", time.Now())
	dept := seedDepartment(t, svc.db, "ROADS")
	worker := seedUser(t, svc.db, "roads_clerk", model.RoleDepartment, &dept.ID)

	candidates := []CandidateIssue{
		{IssueNo: "7", Title: "Fill potholes near market", Department: "Roads", Deadline: "10-04-2025"},
	}

	_, err := svc.AllocateAll(minute.ID, candidates)
	require.NoError(t, err)

	// Second run with the identical payload changes nothing and stays quiet.
	_, err = svc.AllocateAll(minute.ID, candidates)
	require.NoError(t, err)

	assert.EqualValues(t, 1, countRows(t, svc.db, &model.Issue{}))
	assert.EqualValues(t, 1, countRows(t, svc.db, &model.IssueDepartment{}))
	assert.EqualValues(t, 1, countRows(t, svc.db, &model.Department{}))

	var notifs []model.Notification
	require.NoError(t, svc.db.Where("user_id = ?", worker.ID).Find(&notifs).Error)
	assert.Len(t, notifs, 1)
}

func TestAllocateAll_ReallocationRefreshesDeadlineAndStatus(t *testing.T) {
	svc := newTestService(t)

	minute := seedMinutes(t, svc.db, "Council Meeting", time.Now())
	_, err := svc.AllocateAll(minute.ID, []CandidateIssue{
		{IssueNo: "3", Title: "Inspect bridge railing", Department: "Roads", Deadline: "01-03-2025"},
	})
	require.NoError(t, err)

	var link model.IssueDepartment
	require.NoError(t, svc.db.First(&link).Error)
	require.NoError(t, svc.db.Model(&link).Update("status", model.StatusOverdue).Error)

	_, err = svc.AllocateAll(minute.ID, []CandidateIssue{
		{IssueNo: "3", Title: "Inspect bridge railing", Department: "Roads", Deadline: "15-04-2025"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.db.First(&link, "id = ?", link.ID).Error)
	assert.Equal(t, model.StatusPending, link.Status)
	assert.Equal(t, "15-04-2025", formatDate(link.DeadlineDate.UTC()))
	assert.EqualValues(t, 1, countRows(t, svc.db, &model.IssueDepartment{}))
}

func TestAllocateAll_FlattensParentChains(t *testing.T) {
	svc := newTestService(t)

	rootMinutes := seedMinutes(t, svc.db, "January Meeting", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	root := seedIssue(t, svc.db, rootMinutes.ID, "Drainage overflow at bus stand")

	midMinutes := seedMinutes(t, svc.db, "February Meeting", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
	mid := model.Issue{MinutesID: midMinutes.ID, Title: "Drainage overflow persists", ParentIssueID: &root.ID}
	require.NoError(t, svc.db.Create(&mid).Error)

	// A follow-up pointing at the middle issue must land on the root.
	minute := seedMinutes(t, svc.db, "March Meeting", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	_, err := svc.AllocateAll(minute.ID, []CandidateIssue{
		{IssueNo: "5", Title: "Drainage overflow third report", Department: "Sanitation", ParentIssueID: mid.ID},
	})
	require.NoError(t, err)

	var child model.Issue
	require.NoError(t, svc.db.First(&child, "title = ?", "Drainage overflow third report").Error)
	require.NotNil(t, child.ParentIssueID)
	assert.Equal(t, root.ID, *child.ParentIssueID)
}

func TestAllocateAll_DropsMissingParentLink(t *testing.T) {
	svc := newTestService(t)

	minute := seedMinutes(t, svc.db, "Council Meeting", time.Now())
	_, err := svc.AllocateAll(minute.ID, []CandidateIssue{
		{IssueNo: "9", Title: "Repaint zebra crossings", Department: "Roads", ParentIssueID: "no-such-issue"},
	})
	require.NoError(t, err)

	var issue model.Issue
	require.NoError(t, svc.db.First(&issue, "title = ?", "Repaint zebra crossings").Error)
	assert.Nil(t, issue.ParentIssueID)
}

func TestAllocateAll_SkipsEmptyTitles(t *testing.T) {
	svc := newTestService(t)

	minute := seedMinutes(t, svc.db, "Council Meeting", time.Now())
	allocated, err := svc.AllocateAll(minute.ID, []CandidateIssue{
		{IssueNo: "1", Title: "   ", Department: "Roads"},
		{IssueNo: "2", Title: "Actual issue", Department: "Roads"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, allocated)
	assert.EqualValues(t, 1, countRows(t, svc.db, &model.Issue{}))
}

func TestAllocateAll_UnknownMinutes(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AllocateAll("missing-id", []CandidateIssue{{Title: "Anything"}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AllocateAll("  ", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAllocateSingle(t *testing.T) {
	svc := newTestService(t)

	minute := seedMinutes(t, svc.db, "Council Meeting", time.Now())
	allocated, err := svc.AllocateSingle(minute.ID, CandidateIssue{
		IssueNo: "4", Title: "Install speed breakers", Department: "Roads",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, allocated)
	assert.EqualValues(t, 1, countRows(t, svc.db, &model.IssueDepartment{}))
}

func TestParseDepartments(t *testing.T) {
	tests := []struct {
		name string
		cand CandidateIssue
		want []string
	}{
		{
			name: "list and string merged",
			cand: CandidateIssue{Departments: []string{"roads", "Water"}, Department: "ROADS, sanitation"},
			want: []string{"ROADS", "WATER", "SANITATION"},
		},
		{
			name: "whitespace and empties dropped",
			cand: CandidateIssue{Department: " roads ,, , roads "},
			want: []string{"ROADS"},
		},
		{
			name: "no designation defaults to GENERAL",
			cand: CandidateIssue{},
			want: []string{"GENERAL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDepartments(tt.cand))
		})
	}
}

func TestParseDepartments_TruncatesOnRuneBoundary(t *testing.T) {
	// Malayalam names run three bytes per rune; truncation must never
	// split one.
	long := strings.Repeat("ക", departmentNameMax+40)
	names := parseDepartments(CandidateIssue{Department: long})

	require.Len(t, names, 1)
	assert.True(t, utf8.ValidString(names[0]))
	assert.Equal(t, departmentNameMax, utf8.RuneCountInString(names[0]))

	ascii := parseDepartments(CandidateIssue{Department: strings.Repeat("a", departmentNameMax+5)})
	require.Len(t, ascii, 1)
	assert.Len(t, ascii[0], departmentNameMax)
}

func TestParseDeadline(t *testing.T) {
	wantDefault := time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"valid date", "20-03-2025", time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)},
		{"empty defaults fourteen days out", "", wantDefault},
		{"unparseable defaults fourteen days out", "2025/03/20", wantDefault},
		{"month out of range defaults", "20-13-2025", wantDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDeadline(tt.raw, FixedTime))
		})
	}
}
