package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "github.com/arjun-kv/CivicMinutes/models"
)

// FixedTime is used to patch time.Now in tests.
var FixedTime = time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

// newTestDB opens an in-memory sqlite database unique to the calling test.
// cache=shared keeps the database alive across gorm's pooled connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Department{},
		&model.User{},
		&model.Minutes{},
		&model.Issue{},
		&model.IssueDepartment{},
		&model.Response{},
		&model.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// newTestService wires an IssueService against the test database and a
// miniredis-backed draft store. S3 and Elasticsearch stay nil so storage and
// indexing are skipped.
func newTestService(t *testing.T) *IssueService {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &IssueService{db: newTestDB(t), rdb: rdb}
}

// newTestServiceWithRedis additionally exposes the miniredis handle for
// tests that manipulate TTLs.
func newTestServiceWithRedis(t *testing.T) (*IssueService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &IssueService{db: newTestDB(t), rdb: rdb}, mr
}

func seedMinutes(t *testing.T, db *gorm.DB, title string, meetingDate time.Time) model.Minutes {
	t.Helper()

	minute := model.Minutes{Title: title, MeetingDate: meetingDate, UploadedByID: "uploader"}
	if err := db.Create(&minute).Error; err != nil {
		t.Fatalf("failed to seed minutes %q: %v", title, err)
	}
	return minute
}

func seedUser(t *testing.T, db *gorm.DB, username string, role model.Role, departmentID *string) model.User {
	t.Helper()

	user := model.User{Username: username, Role: string(role), DepartmentID: departmentID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %q: %v", username, err)
	}
	return user
}

func seedDepartment(t *testing.T, db *gorm.DB, name string) model.Department {
	t.Helper()

	dept := model.Department{Name: name}
	if err := db.Create(&dept).Error; err != nil {
		t.Fatalf("failed to seed department %q: %v", name, err)
	}
	return dept
}

func seedIssue(t *testing.T, db *gorm.DB, minutesID, title string) model.Issue {
	t.Helper()

	issue := model.Issue{MinutesID: minutesID, Title: title, IssueNo: "1", Priority: model.PriorityMedium}
	if err := db.Create(&issue).Error; err != nil {
		t.Fatalf("failed to seed issue %q: %v", title, err)
	}
	return issue
}

func seedAssignment(t *testing.T, db *gorm.DB, issueID, departmentID string, deadline time.Time, status string) model.IssueDepartment {
	t.Helper()

	link := model.IssueDepartment{
		IssueID:      issueID,
		DepartmentID: departmentID,
		DeadlineDate: deadline,
		Status:       status,
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("failed to seed assignment: %v", err)
	}
	return link
}

func countRows(t *testing.T, db *gorm.DB, mdl interface{}) int64 {
	t.Helper()

	var n int64
	if err := db.Model(mdl).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
