package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
)

// Issue is a positional annotation attached to an object within a
// project's model. Its physical key is (projectId, sortKey); the
// logical id stays stable even if the key structure changes.
type Issue struct {
	ID        string `json:"id" dynamodbav:"id"`
	ProjectID string `json:"projectId" dynamodbav:"projectId"`
	SortKey   string `json:"sortKey" dynamodbav:"sortKey"`
	ObjectID  string `json:"objectId" dynamodbav:"objectId"`

	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description" dynamodbav:"description"`
	Author      string `json:"author" dynamodbav:"author"`
	Priority    string `json:"priority" dynamodbav:"priority"`
	Status      string `json:"status" dynamodbav:"status"`

	CreatedAt string `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt string `json:"updatedAt" dynamodbav:"updatedAt"`

	// OwnerSub records who created the issue, for future ownership checks.
	OwnerSub string `json:"owner_sub" dynamodbav:"owner_sub"`
}

// Stats aggregates issue counts for the dashboard.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusResolved
}

// NewSortKey composes the range key from the creation timestamp and the
// issue id. Timestamps lead, so lexicographic order on the key is
// chronological order within a project partition, and the id suffix
// keeps keys unique when timestamps collide.
func NewSortKey(createdAt, id string) string {
	return createdAt + "#" + id
}

// timeLayout keeps the fractional seconds fixed-width. RFC3339Nano drops
// trailing zeros, which would break the lexicographic ordering the sort
// keys rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Now returns the canonical timestamp representation for stored records.
func Now() string {
	return time.Now().UTC().Format(timeLayout)
}

// NextTimestamp returns the current time, nudged forward if needed so it
// is strictly greater than prev. Updates must always advance updatedAt.
func NextTimestamp(prev string) string {
	now := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339Nano, prev); err == nil && !now.After(t) {
		now = t.Add(time.Nanosecond)
	}
	return now.Format(timeLayout)
}

// ValidationError reports a request field that failed validation; the
// message always names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CheckRequired validates a required free-text field after trimming.
func CheckRequired(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", Invalid(field, "must not be empty")
	}
	return value, nil
}

// CheckPriority validates an explicit priority value.
func CheckPriority(p string) error {
	if !ValidPriority(p) {
		return Invalid("priority", "must be 'low', 'medium', or 'high'")
	}
	return nil
}

// CheckStatus validates an explicit status value.
func CheckStatus(s string) error {
	if !ValidStatus(s) {
		return Invalid("status", "must be 'open', 'in-progress', or 'resolved'")
	}
	return nil
}
