package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	model "github.com/arjun-kv/CivicMinutes/models"
	"gorm.io/gorm"
)

const notificationPageSize = 20

// NotificationView is one inbox entry as shown to a user. Type is derived
// from the message text at read time, never stored.
type NotificationView struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	TimeAgo   string    `json:"time_ago"`
	CreatedAt time.Time `json:"created_at"`
}

// ListNotifications returns the newest inbox entries for a user, looked up
// case-insensitively by username. Unknown users get an empty inbox.
func (s *IssueService) ListNotifications(username string) ([]NotificationView, error) {
	var user model.User
	err := s.db.Where("UPPER(username) = ?", strings.ToUpper(strings.TrimSpace(username))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []NotificationView{}, nil
		}
		return nil, fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	var notifs []model.Notification
	if err := s.db.Where("user_id = ?", user.ID).
		Order("created_at DESC").Limit(notificationPageSize).Find(&notifs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	views := make([]NotificationView, 0, len(notifs))
	for _, n := range notifs {
		views = append(views, NotificationView{
			ID:        n.ID,
			Message:   n.Message,
			Type:      n.DeriveType(),
			IsRead:    n.IsRead,
			TimeAgo:   timeAgo(n.CreatedAt, time.Now()),
			CreatedAt: n.CreatedAt,
		})
	}
	return views, nil
}

// MarkNotificationRead flips the read flag. The only mutation notifications
// ever see.
func (s *IssueService) MarkNotificationRead(notificationID string) error {
	var notif model.Notification
	if err := s.db.First(&notif, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
		}
		return fmt.Errorf("failed to load notification %s: %w", notificationID, err)
	}
	if err := s.db.Model(&notif).Update("is_read", true).Error; err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// timeAgo renders a coarse human-readable age for inbox display.
func timeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}
