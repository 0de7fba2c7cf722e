package domain

import "time"

// Fixed-width fractional seconds keep string comparison consistent with
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Now returns the canonical timestamp representation for stored records.
func Now() string {
	return time.Now().UTC().Format(timeLayout)
}

// Roles a permission row can carry. Owners can additionally invite
// collaborators; every role grants read/write access to the project's
// issues.
const (
	RoleOwner        = "owner"
	RoleCollaborator = "collaborator"
)

// Project is a container for one uploaded 3D model and its issues.
// Timestamps are RFC 3339 strings so range keys and sort comparisons
// work directly on the stored representation.
type Project struct {
	ProjectID   string `json:"projectId" dynamodbav:"projectId"`
	ProjectName string `json:"projectName" dynamodbav:"projectName"`
	ModelKey    string `json:"modelKey" dynamodbav:"modelKey"`
	OwnerID     string `json:"ownerId" dynamodbav:"ownerId"`
	CreatedAt   string `json:"createdAt" dynamodbav:"createdAt"`

	// ModelURL is a time-limited retrieval link generated at read time;
	// it is never persisted.
	ModelURL string `json:"modelUrl,omitempty" dynamodbav:"-"`
}

// Permission grants a subject access to a project at a role.
// At most one row exists per (projectId, userId): the pair is the
// table's composite key.
type Permission struct {
	PermissionID string `json:"permissionId" dynamodbav:"permissionId"`
	ProjectID    string `json:"projectId" dynamodbav:"projectId"`
	UserID       string `json:"userId" dynamodbav:"userId"`
	Role         string `json:"role" dynamodbav:"role"`
}
