package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Drafts hold extracted-but-not-yet-allocated candidate issues, keyed by the
// Minutes id of the upload. Each draft expires on its own; there is no shared
// process-wide scratch state, so concurrent uploads cannot leak into each
// other.
const draftTTL = 24 * time.Hour

func draftKey(minutesID string) string {
	return "draft:minutes:" + minutesID
}

// SaveDraft stages candidate issues for later allocation.
func (s *IssueService) SaveDraft(ctx context.Context, minutesID string, candidates []CandidateIssue) error {
	if s.rdb == nil {
		return fmt.Errorf("draft store is not configured")
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.rdb.Set(ctx, draftKey(minutesID), payload, draftTTL).Err(); err != nil {
		return fmt.Errorf("failed to store draft for minutes %s: %w", minutesID, err)
	}
	return nil
}

// GetDraft returns the staged candidates for an upload. Expired or unknown
// drafts surface as ErrNotFound.
func (s *IssueService) GetDraft(ctx context.Context, minutesID string) ([]CandidateIssue, error) {
	if s.rdb == nil {
		return nil, fmt.Errorf("draft store is not configured")
	}
	payload, err := s.rdb.Get(ctx, draftKey(minutesID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("draft for minutes %s: %w", minutesID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load draft for minutes %s: %w", minutesID, err)
	}

	var candidates []CandidateIssue
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode draft for minutes %s: %w", minutesID, err)
	}
	return candidates, nil
}

// DeleteDraft drops a staged draft, typically right after allocation.
func (s *IssueService) DeleteDraft(ctx context.Context, minutesID string) error {
	if s.rdb == nil {
		return fmt.Errorf("draft store is not configured")
	}
	if err := s.rdb.Del(ctx, draftKey(minutesID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft for minutes %s: %w", minutesID, err)
	}
	return nil
}
