package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetNotifications returns the newest inbox entries for a user.
func (c *IssueController) GetNotifications(ctx *gin.Context) {
	username := ctx.Query("username")
	if username == "" {
		username = ctx.GetString("username")
	}
	if username == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username required"})
		return
	}

	views, err := c.service.ListNotifications(username)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, views)
}

// MarkNotificationRead toggles a notification's read flag.
func (c *IssueController) MarkNotificationRead(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Notification ID required"})
		return
	}
	if err := c.service.MarkNotificationRead(id); err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
