package services

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// analyzeMinutesDocument sends the uploaded document to the external
// extraction service and returns the candidate issues it found. Every
// failure path returns an empty list: minute upload must not be blocked by
// AI unavailability.
func (s *IssueService) analyzeMinutesDocument(fileBytes []byte, filename string) []CandidateIssue {
	endpoint := strings.TrimSpace(os.Getenv("EXTRACTOR_API_URL"))
	apiKey := strings.TrimSpace(os.Getenv("EXTRACTOR_API_KEY"))
	if endpoint == "" || apiKey == "" {
		log.Println("[analyzeMinutesDocument] extractor not configured, returning no candidates")
		return []CandidateIssue{}
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := w.WriteField("apikey", apiKey); err != nil {
		log.Printf("[analyzeMinutesDocument] failed to write apikey field: %v", err)
		return []CandidateIssue{}
	}
	if err := w.WriteField("language", "ml"); err != nil {
		log.Printf("[analyzeMinutesDocument] failed to write language field: %v", err)
		return []CandidateIssue{}
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		log.Printf("[analyzeMinutesDocument] failed to create form file: %v", err)
		return []CandidateIssue{}
	}
	if _, err := fw.Write(fileBytes); err != nil {
		log.Printf("[analyzeMinutesDocument] failed to write file bytes: %v", err)
		return []CandidateIssue{}
	}
	w.Close()

	req, err := http.NewRequest("POST", endpoint, &b)
	if err != nil {
		log.Printf("[analyzeMinutesDocument] failed to create request: %v", err)
		return []CandidateIssue{}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[analyzeMinutesDocument] extraction request failed: %v", err)
		return []CandidateIssue{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[analyzeMinutesDocument] extractor returned status %d", resp.StatusCode)
		return []CandidateIssue{}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[analyzeMinutesDocument] failed to read extractor response: %v", err)
		return []CandidateIssue{}
	}

	var candidates []CandidateIssue
	if err := json.Unmarshal(body, &candidates); err != nil {
		log.Printf("[analyzeMinutesDocument] failed to parse extractor response: %v", err)
		return []CandidateIssue{}
	}

	log.Printf("[analyzeMinutesDocument] extracted %d candidate issues from %s", len(candidates), filename)
	return candidates
}
