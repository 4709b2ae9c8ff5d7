package models

import (
	"fmt"
	"strings"
)

// Canonical assignment lifecycle statuses. The source data historically mixed
// spellings (PENDING, completed, received); NormalizeStatus folds them all
// into this set.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusOverdue   = "overdue"
)

// Issue resolution statuses, separate from assignment status.
const (
	ResolutionResolved   = "resolved"
	ResolutionUnresolved = "unresolved"
)

// Canonical priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

var statusAliases = map[string]string{
	"pending":   StatusPending,
	"submitted": StatusSubmitted,
	"completed": StatusSubmitted,
	"received":  StatusSubmitted,
	"overdue":   StatusOverdue,
}

// NormalizeStatus maps any legacy status spelling onto the canonical set.
// Unknown values fall back to pending.
func NormalizeStatus(raw string) string {
	if s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusPending
}

// NormalizePriority maps any casing of high/medium/low onto the canonical
// display form, defaulting to Medium.
func NormalizePriority(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Role is the user capability checked at the HTTP boundary.
type Role string

const (
	RoleDPO        Role = "dpo"
	RoleCollector  Role = "collector"
	RoleDepartment Role = "department"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleDPO:
		return RoleDPO, nil
	case RoleCollector:
		return RoleCollector, nil
	case RoleDepartment:
		return RoleDepartment, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// IsAdministrative reports whether the role may allocate issues, resolve
// them, and trigger overdue alerts. Administrative users are excluded from
// department assignment notifications.
func (r Role) IsAdministrative() bool {
	return r == RoleDPO || r == RoleCollector
}
