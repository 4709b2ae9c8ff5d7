package controller

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubmitResponse records a department response against an assignment.
func (c *IssueController) SubmitResponse(ctx *gin.Context) {
	var req struct {
		AssignmentID string `json:"assignment_id" binding:"required"`
		Response     string `json:"response" binding:"required"`
		Attachment   string `json:"attachment"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "assignment_id and response are required", "details": err.Error()})
		return
	}

	if err := c.service.SubmitResponse(req.AssignmentID, req.Response, req.Attachment); err != nil {
		log.Printf("[SubmitResponse] error recording response: %v", err)
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
