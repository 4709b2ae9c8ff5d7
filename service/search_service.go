package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	model "github.com/arjun-kv/CivicMinutes/models"
)

const issueIndex = "issues"

// indexMinutesIssues pushes every issue of a meeting into Elasticsearch.
// Best-effort: a nil client or indexing error is logged and swallowed so
// allocation never fails on search availability.
func (s *IssueService) indexMinutesIssues(minute model.Minutes) {
	if s.esClient == nil {
		return
	}

	var issues []model.Issue
	if err := s.db.Where("minutes_id = ?", minute.ID).Find(&issues).Error; err != nil {
		log.Printf("[indexMinutesIssues] failed to fetch issues for minutes %s: %v", minute.ID, err)
		return
	}

	for _, issue := range issues {
		doc := map[string]interface{}{
			"issue_id":      issue.ID,
			"issue_no":      issue.IssueNo,
			"title":         issue.Title,
			"description":   issue.Description,
			"location":      issue.Location,
			"priority":      issue.Priority,
			"meeting_title": minute.Title,
			"timestamp":     time.Now().UTC(),
		}
		body, err := json.Marshal(doc)
		if err != nil {
			log.Printf("[indexMinutesIssues] failed to marshal issue %s: %v", issue.ID, err)
			continue
		}

		res, err := s.esClient.Index(
			issueIndex,
			bytes.NewReader(body),
			s.esClient.Index.WithDocumentID(issue.ID),
			s.esClient.Index.WithContext(context.Background()),
		)
		if err != nil {
			log.Printf("[indexMinutesIssues] indexing error for issue %s: %v", issue.ID, err)
			continue
		}
		if res.IsError() {
			log.Printf("[indexMinutesIssues] indexing failed for issue %s: %s", issue.ID, res.String())
		}
		res.Body.Close()
	}
}

// SearchIssues runs a full-text query over indexed issues.
func (s *IssueService) SearchIssues(query string) ([]map[string]interface{}, error) {
	if s.esClient == nil {
		return nil, fmt.Errorf("elasticsearch client is not initialized")
	}

	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title", "description", "location", "meeting_title"},
			},
		},
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(context.Background()),
		s.esClient.Search.WithIndex(issueIndex),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hitsMap, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits structure in search response")
	}
	hitsArray, ok := hitsMap["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits array in search response")
	}

	var issues []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		issues = append(issues, source)
	}
	return issues, nil
}
