package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	model "github.com/arjun-kv/CivicMinutes/models"
)

const defaultGroqURL = "https://api.groq.com/openai/v1/chat/completions"

// NewIssueRef is a candidate issue offered to the matcher.
type NewIssueRef struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExistingIssueRef is an unresolved persisted issue the matcher may link to.
type ExistingIssueRef struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	MeetingTitle string `json:"meeting_title"`
}

// IssueMatch links one new candidate to one existing issue.
type IssueMatch struct {
	NewIndex   int    `json:"new_index"`
	ExistingID string `json:"existing_id"`
	Confidence string `json:"confidence"`
}

// GetExistingUnresolvedIssues returns the matcher candidate feed: every issue
// whose resolution status is unresolved, with its meeting title attached.
func (s *IssueService) GetExistingUnresolvedIssues() ([]ExistingIssueRef, error) {
	var issues []model.Issue
	if err := s.db.Where("resolution_status = ?", model.ResolutionUnresolved).
		Order("created_at DESC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unresolved issues: %w", err)
	}

	refs := make([]ExistingIssueRef, 0, len(issues))
	for _, issue := range issues {
		var minute model.Minutes
		if err := s.db.Select("title").First(&minute, "id = ?", issue.MinutesID).Error; err != nil {
			log.Printf("[GetExistingUnresolvedIssues] failed to fetch minutes for issue %s: %v", issue.ID, err)
		}
		refs = append(refs, ExistingIssueRef{
			ID:           issue.ID,
			Title:        issue.Title,
			Description:  issue.Description,
			MeetingTitle: minute.Title,
		})
	}
	return refs, nil
}

// MatchIssues proposes follow-up links between new candidates and existing
// unresolved issues via the semantic matching service. The heuristic itself
// is external; this side enforces the contract: empty inputs short-circuit,
// at most one match per new index, matches only into the supplied existing
// set, confidence restricted to high or medium. Adapter failures degrade to
// an empty list so an upload is never blocked by AI unavailability.
func (s *IssueService) MatchIssues(newIssues []NewIssueRef, existing []ExistingIssueRef) []IssueMatch {
	if len(newIssues) == 0 || len(existing) == 0 {
		return []IssueMatch{}
	}

	raw, err := requestIssueMatches(newIssues, existing)
	if err != nil {
		log.Printf("[MatchIssues] matcher unavailable, returning no matches: %v", err)
		return []IssueMatch{}
	}

	validIDs := make(map[string]bool, len(existing))
	for _, e := range existing {
		validIDs[e.ID] = true
	}

	seen := make(map[int]bool)
	matches := make([]IssueMatch, 0, len(raw))
	for _, m := range raw {
		conf := strings.ToLower(strings.TrimSpace(m.Confidence))
		if seen[m.NewIndex] || !validIDs[m.ExistingID] {
			continue
		}
		if conf != "high" && conf != "medium" {
			continue
		}
		seen[m.NewIndex] = true
		matches = append(matches, IssueMatch{NewIndex: m.NewIndex, ExistingID: m.ExistingID, Confidence: conf})
	}
	return matches
}

// applyMatches stamps proposed parent links onto candidates before
// allocation. Allocation re-resolves the link and flattens it to the root.
func applyMatches(candidates []CandidateIssue, matches []IssueMatch) []CandidateIssue {
	for _, m := range matches {
		if m.NewIndex >= 0 && m.NewIndex < len(candidates) {
			candidates[m.NewIndex].ParentIssueID = m.ExistingID
		}
	}
	return candidates
}

// requestIssueMatches performs the LLM call. JSON-mode chat completion,
// 30 second timeout, single retry on 429.
func requestIssueMatches(newIssues []NewIssueRef, existing []ExistingIssueRef) ([]IssueMatch, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable is not set")
	}
	endpoint := os.Getenv("GROQ_API_URL")
	if endpoint == "" {
		endpoint = defaultGroqURL
	}

	newJSON, err := json.Marshal(newIssues)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal new issues: %w", err)
	}
	existingJSON, err := json.Marshal(existing)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal existing issues: %w", err)
	}

	prompt := fmt.Sprintf(`
	You are matching newly extracted government meeting issues against existing unresolved issues.

	New issues:
	%s

	Existing issues:
	%s

	Instructions:
	1. A match means the new issue is a follow-up of the existing one (same underlying problem, possibly a later meeting).
	2. Return at most one match per new issue. Skip new issues with no clear match.
	3. Confidence must be "high" or "medium". Do not invent existing ids.

	Response Format:
	{
	    "matches": [{"new_index": 0, "existing_id": "...", "confidence": "high"}]
	}
	`, string(newJSON), string(existingJSON))

	reqBody, err := json.Marshal(map[string]interface{}{
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"model":       "llama-3.3-70b-versatile",
		"temperature": 0.2,
		"max_tokens":  500,
		"response_format": map[string]string{
			"type": "json_object",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal matcher request: %w", err)
	}

	var resp *http.Response
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create matcher request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{Timeout: 30 * time.Second}
		resp, err = client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("matcher request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()
		time.Sleep(time.Duration(attempt+1) * time.Second)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matcher returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read matcher response: %w", err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse matcher response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("matcher response contained no choices")
	}

	var payload struct {
		Matches []IssueMatch `json:"matches"`
	}
	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse matches from content: %w", err)
	}
	return payload.Matches, nil
}
