package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
)

type ProjectScanner interface {
	ScanProjects(ctx context.Context, fn func([]domain.Project) error) error
}

type PermissionStore interface {
	Get(ctx context.Context, projectID, userID string) (*domain.Permission, error)
	Put(ctx context.Context, perm *domain.Permission) error
}

// Reconciler repairs projects that lost their owner permission to a
// partial write: any project without a permission row for its owner gets
// one re-granted. Scan pages are paced so the sweep never competes with
// request traffic for table throughput.
type Reconciler struct {
	projects ProjectScanner
	perms    PermissionStore
	limiter  *rate.Limiter
}

func NewReconciler(projects ProjectScanner, perms PermissionStore) *Reconciler {
	return &Reconciler{
		projects: projects,
		perms:    perms,
		limiter:  rate.NewLimiter(rate.Limit(2), 1),
	}
}

// Run sweeps the projects table once and returns how many owner
// permissions were repaired.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	repaired := 0

	err := r.projects.ScanProjects(ctx, func(page []domain.Project) error {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		for _, p := range page {
			_, err := r.perms.Get(ctx, p.ProjectID, p.OwnerID)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrPermissionNotFound) {
				return err
			}

			perm := &domain.Permission{
				PermissionID: uuid.NewString(),
				ProjectID:    p.ProjectID,
				UserID:       p.OwnerID,
				Role:         domain.RoleOwner,
			}
			if err := r.perms.Put(ctx, perm); err != nil {
				return fmt.Errorf("repair project %s: %w", p.ProjectID, err)
			}

			log.Printf("reconciler: restored owner permission for project %s", p.ProjectID)
			repaired++
		}
		return nil
	})

	return repaired, err
}

// Start schedules periodic sweeps with the given cron expression and
// returns the running scheduler.
func (r *Reconciler) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		repaired, err := r.Run(context.Background())
		if err != nil {
			log.Printf("reconciler sweep failed: %v", err)
			return
		}
		log.Printf("reconciler sweep done, repaired=%d", repaired)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reconciler: %w", err)
	}

	log.Printf("permission reconciler scheduled (%s)", schedule)
	c.Start()
	return c, nil
}
