package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"pending", StatusPending},
		{"PENDING", StatusPending},
		{" Submitted ", StatusSubmitted},
		{"completed", StatusSubmitted},
		{"Received", StatusSubmitted},
		{"overdue", StatusOverdue},
		{"", StatusPending},
		{"garbage", StatusPending},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"high", PriorityHigh},
		{"HIGH", PriorityHigh},
		{"Low", PriorityLow},
		{"medium", PriorityMedium},
		{"", PriorityMedium},
		{"urgent", PriorityMedium},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePriority(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseRole(t *testing.T) {
	for raw, want := range map[string]Role{
		"dpo":         RoleDPO,
		" Collector ": RoleCollector,
		"DEPARTMENT":  RoleDepartment,
	} {
		got, err := ParseRole(raw)
		assert.NoError(t, err, "raw=%q", raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRoleIsAdministrative(t *testing.T) {
	assert.True(t, RoleDPO.IsAdministrative())
	assert.True(t, RoleCollector.IsAdministrative())
	assert.False(t, RoleDepartment.IsAdministrative())
}
