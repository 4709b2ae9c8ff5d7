package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"strings"
	"time"

	model "github.com/arjun-kv/CivicMinutes/models"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UploadAndExtractMinutes runs the upload pipeline: store the document,
// create the MeetingRecord, extract candidate issues, propose follow-up
// links against unresolved issues and stage everything in the draft store.
// Extraction and matching failures degrade to an empty candidate list; the
// upload itself never fails because AI is unavailable.
func (s *IssueService) UploadAndExtractMinutes(ctx context.Context, file multipart.File, header *multipart.FileHeader, title, meetingDateStr, uploaderID string) (*model.Minutes, []CandidateIssue, error) {
	log.Printf("[UploadAndExtractMinutes] file=%s size=%d", header.Filename, header.Size)

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(header.Filename, "."+fileExt(header.Filename))
	}
	meetingDate := dateOnly(time.Now())
	if d, err := time.Parse(DateLayout, strings.TrimSpace(meetingDateStr)); err == nil {
		meetingDate = d
	}

	fileURL := s.storeMinutesFile(fileBytes, header)

	candidates := s.analyzeMinutesDocument(fileBytes, header.Filename)
	candidates = normalizeCandidates(candidates)

	existing, err := s.GetExistingUnresolvedIssues()
	if err != nil {
		log.Printf("[UploadAndExtractMinutes] skipping follow-up matching: %v", err)
	} else {
		newRefs := make([]NewIssueRef, 0, len(candidates))
		for i, cand := range candidates {
			newRefs = append(newRefs, NewIssueRef{Index: i, Title: cand.Title, Description: cand.Description})
		}
		candidates = applyMatches(candidates, s.MatchIssues(newRefs, existing))
	}

	rawJSON, err := json.Marshal(candidates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal extraction payload: %w", err)
	}

	minute := model.Minutes{
		Title:         title,
		MeetingDate:   meetingDate,
		UploadedByID:  uploaderID,
		FileURL:       fileURL,
		ExtractionRaw: datatypes.JSON(rawJSON),
	}
	if err := s.db.Create(&minute).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to save minutes: %w", err)
	}

	if err := s.SaveDraft(ctx, minute.ID, candidates); err != nil {
		log.Printf("[UploadAndExtractMinutes] failed to stage draft for minutes %s: %v", minute.ID, err)
	}

	log.Printf("[UploadAndExtractMinutes] minutes %s created with %d candidate issues", minute.ID, len(candidates))
	return &minute, candidates, nil
}

// storeMinutesFile uploads the document to S3 and returns its public URL.
// Returns the bare filename when storage is not configured.
func (s *IssueService) storeMinutesFile(fileBytes []byte, header *multipart.FileHeader) string {
	if s.s3Client == nil {
		log.Println("[storeMinutesFile] S3 not configured, skipping upload")
		return header.Filename
	}

	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		log.Println("[storeMinutesFile] S3_BUCKET not set, skipping upload")
		return header.Filename
	}

	fileID := fmt.Sprintf("minutes/%d-%s", time.Now().Unix(), header.Filename)
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(fileID),
		Body:        strings.NewReader(string(fileBytes)),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(header.Header.Get("Content-Type")),
	})
	if err != nil {
		log.Printf("[storeMinutesFile] S3 upload error: %v", err)
		return header.Filename
	}

	return fmt.Sprintf("%s/object/public/%s/%s", os.Getenv("S3_PUBLIC_URL"), bucket, fileID)
}

// normalizeCandidates cleans extraction output before it is shown or staged:
// department names uppercased and deduplicated, priorities canonical.
func normalizeCandidates(candidates []CandidateIssue) []CandidateIssue {
	cleaned := make([]CandidateIssue, 0, len(candidates))
	for _, cand := range candidates {
		names := parseDepartments(cand)
		cand.Departments = names
		cand.Department = strings.Join(names, ", ")
		cand.Priority = model.NormalizePriority(cand.Priority)
		cand.Title = strings.TrimSpace(cand.Title)
		cleaned = append(cleaned, cand)
	}
	return cleaned
}

// ListMinutes returns all meeting records, newest upload first.
func (s *IssueService) ListMinutes() ([]model.Minutes, error) {
	var minutes []model.Minutes
	if err := s.db.Order("created_at DESC").Find(&minutes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch minutes: %w", err)
	}
	return minutes, nil
}

// DeleteMinutes removes a meeting record. Issues, assignments, responses and
// notifications hang off it via ON DELETE CASCADE in the schema.
func (s *IssueService) DeleteMinutes(minutesID string) error {
	var minute model.Minutes
	if err := s.db.First(&minute, "id = ?", minutesID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("minutes %s: %w", minutesID, ErrNotFound)
		}
		return fmt.Errorf("failed to load minutes %s: %w", minutesID, err)
	}
	if err := s.db.Delete(&minute).Error; err != nil {
		return fmt.Errorf("failed to delete minutes %s: %w", minutesID, err)
	}
	return nil
}

func fileExt(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 && idx < len(filename)-1 {
		return filename[idx+1:]
	}
	return ""
}
