package services

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DateLayout is the display and parse format for every date crossing the
// API boundary (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// Grace period applied when a candidate issue carries no parseable deadline.
const deadlineGraceDays = 14

const departmentNameMax = 100

// Sentinel errors translated to HTTP statuses at the controller boundary.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
)

// IssueService owns the issue allocation, lifecycle and notification logic.
type IssueService struct {
	db       *gorm.DB
	rdb      *redis.Client
	esClient *elasticsearch.Client
	s3Client *s3.S3
}

// NewIssueService wires the service against the database and draft store.
// S3 and Elasticsearch are optional: when their configuration is absent the
// related features (file storage, search indexing) are skipped, never fatal.
func NewIssueService(db *gorm.DB, rdb *redis.Client) (*IssueService, error) {
	svc := &IssueService{db: db, rdb: rdb}

	region := os.Getenv("S3_REGION")
	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	if region != "" && endpoint != "" && accessKey != "" && secretKey != "" {
		sess, err := session.NewSession(&aws.Config{
			Region:           aws.String(region),
			Endpoint:         aws.String(endpoint),
			DisableSSL:       aws.Bool(false),
			Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
			S3ForcePathStyle: aws.Bool(true),
		})
		if err != nil {
			return nil, err
		}
		svc.s3Client = s3.New(sess)
	} else {
		log.Println("S3 configuration incomplete, document storage disabled")
	}

	if esURL := os.Getenv("ELASTICSEARCH_URL"); esURL != "" {
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
		if err != nil {
			log.Printf("Warning: failed to create Elasticsearch client: %v", err)
		} else {
			svc.esClient = esClient
		}
	}

	return svc, nil
}

// dateOnly truncates a timestamp to its UTC calendar date. Deadlines are
// stored and compared as dates, never as instants.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}
