package controller

import (
	"errors"
	"log"
	"net/http"
	"time"

	service "github.com/arjun-kv/CivicMinutes/service"

	"github.com/gin-gonic/gin"
)

// IssueController manages HTTP requests for the issue lifecycle.
type IssueController struct {
	service *service.IssueService
}

// NewIssueController initializes the controller with the service.
func NewIssueController(svc *service.IssueService) *IssueController {
	return &IssueController{service: svc}
}

// statusForError maps service sentinel errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AllocateAll persists a batch of candidate issues against a meeting record.
// When the request carries no issues, the staged draft for that meeting is
// consumed instead.
func (c *IssueController) AllocateAll(ctx *gin.Context) {
	var req struct {
		MinutesID string                   `json:"minutes_id" binding:"required"`
		Issues    []service.CandidateIssue `json:"issues"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "minutes_id is required", "details": err.Error()})
		return
	}

	issues := req.Issues
	if len(issues) == 0 {
		draft, err := c.service.GetDraft(ctx.Request.Context(), req.MinutesID)
		if err != nil {
			ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		issues = draft
	}

	allocated, err := c.service.AllocateAll(req.MinutesID, issues)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	if err := c.service.DeleteDraft(ctx.Request.Context(), req.MinutesID); err != nil {
		// Draft expiry will reclaim it; allocation already succeeded.
		log.Printf("[AllocateAll] failed to drop draft for minutes %s: %v", req.MinutesID, err)
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "allocated_count": allocated})
}

// AllocateSingle persists exactly one candidate issue.
func (c *IssueController) AllocateSingle(ctx *gin.Context) {
	var req struct {
		MinutesID string                 `json:"minutes_id" binding:"required"`
		Issue     service.CandidateIssue `json:"issue" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "minutes_id and issue are required", "details": err.Error()})
		return
	}

	allocated, err := c.service.AllocateSingle(req.MinutesID, req.Issue)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "allocated_count": allocated})
}

// GetAllIssues returns every assignment, overdue sweep applied.
func (c *IssueController) GetAllIssues(ctx *gin.Context) {
	views, err := c.service.ListAssignments("")
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, views)
}

// GetDeptIssues returns the assignments of one department.
func (c *IssueController) GetDeptIssues(ctx *gin.Context) {
	deptName := ctx.Param("dept_name")
	if deptName == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Department name required"})
		return
	}
	views, err := c.service.ListAssignments(deptName)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, views)
}

// GetIssuesGrouped returns the per-issue aggregate view, optionally filtered
// by meeting-date range (from/to, DD-MM-YYYY).
func (c *IssueController) GetIssuesGrouped(ctx *gin.Context) {
	from := parseDateQuery(ctx.Query("from"))
	to := parseDateQuery(ctx.Query("to"))

	aggregates, err := c.service.ListIssuesGrouped(from, to)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, aggregates)
}

// GetIssueLifecycle reconstructs one issue's history across meetings.
func (c *IssueController) GetIssueLifecycle(ctx *gin.Context) {
	issueID := ctx.Param("id")
	if issueID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Issue ID required"})
		return
	}

	filters := service.LifecycleFilters{
		Status:     ctx.Query("status"),
		Department: ctx.Query("department"),
		Search:     ctx.Query("search"),
		DateFrom:   parseDateQuery(ctx.Query("from")),
		DateTo:     parseDateQuery(ctx.Query("to")),
	}
	if hr := ctx.Query("has_response"); hr != "" {
		v := hr == "true" || hr == "1"
		filters.HasResponse = &v
	}

	result, err := c.service.GetIssueLifecycle(issueID, filters)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ResolveIssue sets an issue's resolution status.
func (c *IssueController) ResolveIssue(ctx *gin.Context) {
	issueID := ctx.Param("id")
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "status is required", "details": err.Error()})
		return
	}

	if err := c.service.ResolveIssue(issueID, req.Status); err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// GetExistingIssues returns unresolved issues as matcher candidates.
func (c *IssueController) GetExistingIssues(ctx *gin.Context) {
	refs, err := c.service.GetExistingUnresolvedIssues()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, refs)
}

// MatchIssues proposes follow-up links between new and existing issues.
func (c *IssueController) MatchIssues(ctx *gin.Context) {
	var req struct {
		NewIssues []service.NewIssueRef      `json:"new_issues"`
		Existing  []service.ExistingIssueRef `json:"existing_issues"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"matches": c.service.MatchIssues(req.NewIssues, req.Existing)})
}

// SearchIssues runs a full-text search over indexed issues.
func (c *IssueController) SearchIssues(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}
	results, err := c.service.SearchIssues(query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": results})
}

// SendOverdueAlerts sweeps stale assignments and emails the departments.
func (c *IssueController) SendOverdueAlerts(ctx *gin.Context) {
	sent, err := c.service.SendOverdueAlerts()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "sent": sent})
}

func parseDateQuery(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if d, err := time.Parse(service.DateLayout, raw); err == nil {
		return &d
	}
	return nil
}
