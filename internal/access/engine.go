package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
)

// ErrAlreadyGranted reports that the subject already holds a permission
// row for the project; invites are rejected rather than overwritten.
var ErrAlreadyGranted = errors.New("user already invited to this project")

// PermissionRepo is the storage contract the engine needs: a point
// lookup for the membership test, a put for grants, and a listing of a
// subject's grants for visibility queries.
type PermissionRepo interface {
	Get(ctx context.Context, projectID, userID string) (*domain.Permission, error)
	Put(ctx context.Context, perm *domain.Permission) error
	ListByUser(ctx context.Context, userID string) ([]domain.Permission, error)
}

// Engine answers the two access questions the API exposes: may this
// subject see the project at all, and may it invite others. Access is
// row-existence based; there is no role hierarchy beyond owner being
// the only role allowed to invite.
type Engine struct {
	perms PermissionRepo
}

func NewEngine(perms PermissionRepo) *Engine {
	return &Engine{perms: perms}
}

// HasAccess is true iff a permission row exists for (subject, project).
func (e *Engine) HasAccess(ctx context.Context, subject, projectID string) (bool, error) {
	_, err := e.perms.Get(ctx, projectID, subject)
	if errors.Is(err, domain.ErrPermissionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("permission lookup: %w", err)
	}
	return true, nil
}

// IsOwner is true iff the subject holds the owner role on the project.
func (e *Engine) IsOwner(ctx context.Context, subject, projectID string) (bool, error) {
	perm, err := e.perms.Get(ctx, projectID, subject)
	if errors.Is(err, domain.ErrPermissionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("permission lookup: %w", err)
	}
	return perm.Role == domain.RoleOwner, nil
}

// Grant writes a new permission row. It fails with ErrAlreadyGranted if
// the subject already has one, keeping at most one row per
// (project, subject) pair.
func (e *Engine) Grant(ctx context.Context, projectID, subject, role string) (*domain.Permission, error) {
	_, err := e.perms.Get(ctx, projectID, subject)
	if err == nil {
		return nil, ErrAlreadyGranted
	}
	if !errors.Is(err, domain.ErrPermissionNotFound) {
		return nil, fmt.Errorf("permission lookup: %w", err)
	}

	perm := &domain.Permission{
		PermissionID: uuid.NewString(),
		ProjectID:    projectID,
		UserID:       subject,
		Role:         role,
	}
	if err := e.perms.Put(ctx, perm); err != nil {
		return nil, fmt.Errorf("save permission: %w", err)
	}
	return perm, nil
}

// ProjectsFor returns the ids of every project the subject may access.
func (e *Engine) ProjectsFor(ctx context.Context, subject string) ([]string, error) {
	perms, err := e.perms.ListByUser(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ProjectID)
	}
	return ids, nil
}
