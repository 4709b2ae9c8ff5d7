package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationDeriveType(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"ACTION REQUIRED: 3 new issues have been assigned to your department.", NotificationAssign},
		{"Response Received: ROADS responded to Issue #12", NotificationResponse},
		{"Overdue: issue #4 (Fix potholes) passed its deadline on 01-03-2025.", NotificationDeadline},
		{"Reminder: the deadline is approaching", NotificationDeadline},
		{"Welcome to the portal", NotificationGeneral},
	}

	for _, tt := range tests {
		n := Notification{Message: tt.message}
		assert.Equal(t, tt.want, n.DeriveType(), "message=%q", tt.message)
	}
}
