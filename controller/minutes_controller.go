package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadMinutes handles the document upload request: stores the file,
// extracts candidate issues and stages them as a draft keyed by the new
// meeting record.
func (c *IssueController) UploadMinutes(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
		return
	}
	defer file.Close()

	uploaderID := ctx.GetString("user_id")
	minute, candidates, err := c.service.UploadAndExtractMinutes(
		ctx.Request.Context(), file, header,
		ctx.PostForm("title"), ctx.PostForm("meeting_date"), uploaderID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":    "Minutes uploaded and processed successfully",
		"minutes_id": minute.ID,
		"data":       candidates,
	})
}

// GetAssignIssues returns the staged draft for an upload.
func (c *IssueController) GetAssignIssues(ctx *gin.Context) {
	minutesID := ctx.Query("minutes_id")
	if minutesID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'minutes_id' is required"})
		return
	}

	candidates, err := c.service.GetDraft(ctx.Request.Context(), minutesID)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, candidates)
}

// ListMinutes returns all meeting records, newest first.
func (c *IssueController) ListMinutes(ctx *gin.Context) {
	minutes, err := c.service.ListMinutes()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, minutes)
}

// DeleteMinutes removes a meeting record and everything hanging off it.
func (c *IssueController) DeleteMinutes(ctx *gin.Context) {
	minutesID := ctx.Param("id")
	if minutesID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Minutes ID required"})
		return
	}
	if err := c.service.DeleteMinutes(minutesID); err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
