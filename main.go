package main

import (
	"log"
	"net/http"

	controller "github.com/arjun-kv/CivicMinutes/controller"
	"github.com/arjun-kv/CivicMinutes/initializers"
	middleware "github.com/arjun-kv/CivicMinutes/middleware"
	service "github.com/arjun-kv/CivicMinutes/service"

	"github.com/gin-gonic/gin"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Printf("No .env file loaded: %s", err)
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
	initializers.ConnectRedis()
}

func main() {
	issueService, err := service.NewIssueService(initializers.DB, initializers.RDB)
	if err != nil {
		log.Fatalf("Failed to initialize issue service: %s", err)
	}

	issueController := controller.NewIssueController(issueService)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.GlobalRateLimiter.Limit())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	auth := router.Group("/", middleware.AuthMiddleware())

	// Upload, allocation, resolution and alerting are administrative actions.
	admin := auth.Group("/", middleware.RequireAdministrative())
	admin.POST("/upload-minutes",
		middleware.StrictRateLimiter.Limit(),
		issueController.UploadMinutes)
	admin.GET("/assign-issues", issueController.GetAssignIssues)
	admin.POST("/assign-issues/allocate-all",
		middleware.StrictRateLimiter.Limit(),
		issueController.AllocateAll)
	admin.POST("/assign-issues/allocate-single",
		middleware.StrictRateLimiter.Limit(),
		issueController.AllocateSingle)
	admin.GET("/minutes", issueController.ListMinutes)
	admin.DELETE("/minutes/:id", issueController.DeleteMinutes)
	admin.GET("/existing-issues", issueController.GetExistingIssues)
	admin.POST("/match-issues", issueController.MatchIssues)
	admin.GET("/issues", issueController.GetAllIssues)
	admin.GET("/issues/grouped", issueController.GetIssuesGrouped)
	admin.POST("/issues/resolve/:id", issueController.ResolveIssue)
	admin.POST("/send-overdue-alerts",
		middleware.StrictRateLimiter.Limit(),
		issueController.SendOverdueAlerts)

	// Department users see their own queue and submit responses.
	auth.GET("/issues/:dept_name", issueController.GetDeptIssues)
	auth.POST("/submit-response",
		middleware.StrictRateLimiter.Limit(),
		issueController.SubmitResponse)
	auth.GET("/issue-lifecycle/:id", issueController.GetIssueLifecycle)
	auth.GET("/search", issueController.SearchIssues)
	auth.GET("/notifications", issueController.GetNotifications)
	auth.PUT("/notifications/:id/read", issueController.MarkNotificationRead)

	router.Run(":8080")
}
