package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
)

// allowedExtensions lists the model file types the viewer can load.
var allowedExtensions = map[string]bool{
	".glb": true,
}

type ProjectRepo interface {
	CreateWithOwner(ctx context.Context, p *domain.Project, perm *domain.Permission) error
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	BatchGet(ctx context.Context, projectIDs []string) ([]domain.Project, error)
}

type AccessEngine interface {
	HasAccess(ctx context.Context, subject, projectID string) (bool, error)
	ProjectsFor(ctx context.Context, subject string) ([]string, error)
}

// ModelStore is the object-store contract: store blobs by key and mint
// time-limited retrieval links.
type ModelStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Presign(ctx context.Context, key string) (string, error)
}

type ProjectService struct {
	repo   ProjectRepo
	acl    AccessEngine
	models ModelStore
}

func NewProjectService(repo ProjectRepo, acl AccessEngine, models ModelStore) *ProjectService {
	return &ProjectService{repo: repo, acl: acl, models: models}
}

// Create uploads the model blob, then writes the project and its owner
// permission atomically. A failed upload leaves no records behind.
// The returned project carries no retrieval link; links are a read-time
// concern.
func (s *ProjectService) Create(ctx context.Context, subject, projectName, filename string, body io.Reader, contentType string) (*domain.Project, error) {
	projectName = strings.TrimSpace(projectName)
	if projectName == "" {
		return nil, domain.ErrProjectNameRequired
	}
	if filename == "" || !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil, domain.ErrInvalidModelFile
	}

	modelKey := uuid.NewString() + "-" + sanitizeFilename(filename)
	if err := s.models.Upload(ctx, modelKey, body, contentType); err != nil {
		return nil, fmt.Errorf("upload model: %w", err)
	}

	project := &domain.Project{
		ProjectID:   uuid.NewString(),
		ProjectName: projectName,
		ModelKey:    modelKey,
		OwnerID:     subject,
		CreatedAt:   domain.Now(),
	}
	permission := &domain.Permission{
		PermissionID: uuid.NewString(),
		ProjectID:    project.ProjectID,
		UserID:       subject,
		Role:         domain.RoleOwner,
	}

	if err := s.repo.CreateWithOwner(ctx, project, permission); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns every project the subject may access, newest first, each
// with a fresh retrieval link. Projects whose link cannot be generated
// are skipped, not errors: a missing blob should not hide the rest of
// the list.
func (s *ProjectService) List(ctx context.Context, subject string) ([]domain.Project, error) {
	ids, err := s.acl.ProjectsFor(ctx, subject)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}

	projects, err := s.repo.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		url, err := s.models.Presign(ctx, p.ModelKey)
		if err != nil {
			log.Printf("skipping project %s: no retrieval link: %v", p.ProjectID, err)
			continue
		}
		p.ModelURL = url
		visible = append(visible, p)
	}

	sort.Slice(visible, func(i, j int) bool {
		return visible[i].CreatedAt > visible[j].CreatedAt
	})
	return visible, nil
}

// Get fetches one project with a fresh retrieval link. Lack of access is
// reported as not-found, and unlike List, a failed link generation here
// is an error: the caller asked for this specific model.
func (s *ProjectService) Get(ctx context.Context, subject, projectID string) (*domain.Project, error) {
	ok, err := s.acl.HasAccess(ctx, subject, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrProjectNotFound
	}

	p, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	url, err := s.models.Presign(ctx, p.ModelKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLinkUnavailable, err)
	}
	p.ModelURL = url
	return p, nil
}

// sanitizeFilename strips path components and anything outside a safe
// character set before the name becomes part of an object key.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
