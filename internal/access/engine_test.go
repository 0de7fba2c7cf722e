package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
)

type fakePermissionRepo struct {
	perms map[string]*domain.Permission // key: projectID + "/" + userID
	err   error
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{perms: map[string]*domain.Permission{}}
}

func (f *fakePermissionRepo) add(projectID, userID, role string) {
	f.perms[projectID+"/"+userID] = &domain.Permission{
		PermissionID: "perm-" + projectID + "-" + userID,
		ProjectID:    projectID,
		UserID:       userID,
		Role:         role,
	}
}

func (f *fakePermissionRepo) Get(_ context.Context, projectID, userID string) (*domain.Permission, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.perms[projectID+"/"+userID]
	if !ok {
		return nil, domain.ErrPermissionNotFound
	}
	return p, nil
}

func (f *fakePermissionRepo) Put(_ context.Context, perm *domain.Permission) error {
	if f.err != nil {
		return f.err
	}
	f.perms[perm.ProjectID+"/"+perm.UserID] = perm
	return nil
}

func (f *fakePermissionRepo) ListByUser(_ context.Context, userID string) ([]domain.Permission, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Permission
	for _, p := range f.perms {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func TestEngine_HasAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("true when a permission row exists", func(t *testing.T) {
		repo := newFakePermissionRepo()
		repo.add("p1", "alice", domain.RoleCollaborator)
		engine := NewEngine(repo)

		ok, err := engine.HasAccess(ctx, "alice", "p1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("false without a row, regardless of the project existing", func(t *testing.T) {
		engine := NewEngine(newFakePermissionRepo())

		ok, err := engine.HasAccess(ctx, "alice", "p1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		repo := newFakePermissionRepo()
		repo.err = errors.New("dynamo down")
		engine := NewEngine(repo)

		_, err := engine.HasAccess(ctx, "alice", "p1")
		assert.Error(t, err)
	})
}

func TestEngine_IsOwner(t *testing.T) {
	ctx := context.Background()
	repo := newFakePermissionRepo()
	repo.add("p1", "alice", domain.RoleOwner)
	repo.add("p1", "bob", domain.RoleCollaborator)
	engine := NewEngine(repo)

	t.Run("owner role", func(t *testing.T) {
		ok, err := engine.IsOwner(ctx, "alice", "p1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("collaborator is not owner", func(t *testing.T) {
		ok, err := engine.IsOwner(ctx, "bob", "p1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no row is not owner", func(t *testing.T) {
		ok, err := engine.IsOwner(ctx, "carol", "p1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestEngine_Grant(t *testing.T) {
	ctx := context.Background()

	t.Run("writes a new permission row", func(t *testing.T) {
		repo := newFakePermissionRepo()
		engine := NewEngine(repo)

		perm, err := engine.Grant(ctx, "p1", "bob", domain.RoleCollaborator)
		require.NoError(t, err)
		assert.NotEmpty(t, perm.PermissionID)
		assert.Equal(t, "p1", perm.ProjectID)
		assert.Equal(t, "bob", perm.UserID)
		assert.Equal(t, domain.RoleCollaborator, perm.Role)

		ok, err := engine.HasAccess(ctx, "bob", "p1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects a duplicate grant", func(t *testing.T) {
		repo := newFakePermissionRepo()
		repo.add("p1", "bob", domain.RoleCollaborator)
		engine := NewEngine(repo)

		_, err := engine.Grant(ctx, "p1", "bob", domain.RoleCollaborator)
		assert.ErrorIs(t, err, ErrAlreadyGranted)
	})

	t.Run("duplicate grant does not change the existing role", func(t *testing.T) {
		repo := newFakePermissionRepo()
		repo.add("p1", "alice", domain.RoleOwner)
		engine := NewEngine(repo)

		_, err := engine.Grant(ctx, "p1", "alice", domain.RoleCollaborator)
		require.ErrorIs(t, err, ErrAlreadyGranted)

		ok, err := engine.IsOwner(ctx, "alice", "p1")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestEngine_ProjectsFor(t *testing.T) {
	ctx := context.Background()
	repo := newFakePermissionRepo()
	repo.add("p1", "alice", domain.RoleOwner)
	repo.add("p2", "alice", domain.RoleCollaborator)
	repo.add("p3", "bob", domain.RoleOwner)
	engine := NewEngine(repo)

	ids, err := engine.ProjectsFor(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)

	ids, err = engine.ProjectsFor(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
