package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/bim-viewer/bim-viewer-backend/internal/issues/domain"
	projdomain "github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
)

type IssueRepo interface {
	Put(ctx context.Context, issue *domain.Issue) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Issue, error)
	GetByID(ctx context.Context, issueID string) (*domain.Issue, error)
	Update(ctx context.Context, projectID, sortKey string, changes map[string]string, updatedAt string) (*domain.Issue, error)
	Delete(ctx context.Context, projectID, sortKey string) error
}

type AccessEngine interface {
	HasAccess(ctx context.Context, subject, projectID string) (bool, error)
	ProjectsFor(ctx context.Context, subject string) ([]string, error)
}

type CreateInput struct {
	ProjectID   string
	ObjectID    string
	Title       string
	Description string
	Author      string
	Priority    string
	Status      string
}

// Filters narrow issue listings; all provided filters must match.
type Filters struct {
	Status    string
	Priority  string
	ObjectID  string
	ProjectID string
}

// UpdateInput carries the whitelisted mutable fields; nil means leave
// the field unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
}

type IssueService struct {
	repo IssueRepo
	acl  AccessEngine
}

func NewIssueService(repo IssueRepo, acl AccessEngine) *IssueService {
	return &IssueService{repo: repo, acl: acl}
}

// Create validates and stores a new issue in the project's partition.
// The caller must have access to the project; validation happens before
// any write, so a rejected request leaves no record.
func (s *IssueService) Create(ctx context.Context, subject string, in CreateInput) (*domain.Issue, error) {
	if in.ProjectID == "" {
		return nil, domain.Invalid("projectId", "is required")
	}

	ok, err := s.acl.HasAccess(ctx, subject, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, projdomain.ErrProjectNotFound
	}

	objectID, err := domain.CheckRequired("objectId", in.ObjectID)
	if err != nil {
		return nil, err
	}
	title, err := domain.CheckRequired("title", in.Title)
	if err != nil {
		return nil, err
	}
	description, err := domain.CheckRequired("description", in.Description)
	if err != nil {
		return nil, err
	}
	author, err := domain.CheckRequired("author", in.Author)
	if err != nil {
		return nil, err
	}

	priority := domain.PriorityMedium
	if in.Priority != "" {
		if err := domain.CheckPriority(in.Priority); err != nil {
			return nil, err
		}
		priority = in.Priority
	}
	status := domain.StatusOpen
	if in.Status != "" {
		if err := domain.CheckStatus(in.Status); err != nil {
			return nil, err
		}
		status = in.Status
	}

	id := uuid.NewString()
	now := domain.Now()

	issue := &domain.Issue{
		ID:          id,
		ProjectID:   in.ProjectID,
		SortKey:     domain.NewSortKey(now, id),
		ObjectID:    objectID,
		Title:       title,
		Description: description,
		Author:      author,
		Priority:    priority,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
		OwnerSub:    subject,
	}

	if err := s.repo.Put(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// ListForProject returns the project's issues newest-first, narrowed by
// the given filters.
func (s *IssueService) ListForProject(ctx context.Context, subject, projectID string, f Filters) ([]domain.Issue, error) {
	ok, err := s.acl.HasAccess(ctx, subject, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, projdomain.ErrProjectNotFound
	}

	issues, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return applyFilters(issues, f), nil
}

// ListAll returns issues across every project the subject can access,
// newest-first globally. A projectId filter reduces it to a single
// project listing, access check included.
func (s *IssueService) ListAll(ctx context.Context, subject string, f Filters) ([]domain.Issue, error) {
	if f.ProjectID != "" {
		return s.ListForProject(ctx, subject, f.ProjectID, f)
	}

	projectIDs, err := s.acl.ProjectsFor(ctx, subject)
	if err != nil {
		return nil, err
	}

	all := make([]domain.Issue, 0, 32)
	for _, pid := range projectIDs {
		issues, err := s.repo.ListByProject(ctx, pid)
		if err != nil {
			return nil, err
		}
		all = append(all, issues...)
	}

	all = applyFilters(all, f)
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})
	return all, nil
}

// Update applies whitelisted field changes to the issue found by its
// logical id. updatedAt always advances, even for an empty change set.
func (s *IssueService) Update(ctx context.Context, subject, issueID string, in UpdateInput) (*domain.Issue, error) {
	issue, err := s.repo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	ok, err := s.acl.HasAccess(ctx, subject, issue.ProjectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrIssueNotFound
	}

	changes := map[string]string{}
	if in.Title != nil {
		title, err := domain.CheckRequired("title", *in.Title)
		if err != nil {
			return nil, err
		}
		changes["title"] = title
	}
	if in.Description != nil {
		description, err := domain.CheckRequired("description", *in.Description)
		if err != nil {
			return nil, err
		}
		changes["description"] = description
	}
	if in.Status != nil {
		if err := domain.CheckStatus(*in.Status); err != nil {
			return nil, err
		}
		changes["status"] = *in.Status
	}
	if in.Priority != nil {
		if err := domain.CheckPriority(*in.Priority); err != nil {
			return nil, err
		}
		changes["priority"] = *in.Priority
	}

	return s.repo.Update(ctx, issue.ProjectID, issue.SortKey, changes, domain.NextTimestamp(issue.UpdatedAt))
}

// Delete physically removes the issue; there is no soft delete.
func (s *IssueService) Delete(ctx context.Context, subject, issueID string) error {
	issue, err := s.repo.GetByID(ctx, issueID)
	if err != nil {
		return err
	}

	ok, err := s.acl.HasAccess(ctx, subject, issue.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrIssueNotFound
	}

	return s.repo.Delete(ctx, issue.ProjectID, issue.SortKey)
}

// Stats aggregates counts over the issues visible to the caller.
func (s *IssueService) Stats(ctx context.Context, subject string) (*domain.Stats, error) {
	issues, err := s.ListAll(ctx, subject, Filters{})
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{
		Total: len(issues),
		ByStatus: map[string]int{
			domain.StatusOpen:       0,
			domain.StatusInProgress: 0,
			domain.StatusResolved:   0,
		},
		ByPriority: map[string]int{
			domain.PriorityLow:    0,
			domain.PriorityMedium: 0,
			domain.PriorityHigh:   0,
		},
	}
	for _, issue := range issues {
		if _, ok := stats.ByStatus[issue.Status]; ok {
			stats.ByStatus[issue.Status]++
		}
		if _, ok := stats.ByPriority[issue.Priority]; ok {
			stats.ByPriority[issue.Priority]++
		}
	}
	return stats, nil
}

func applyFilters(issues []domain.Issue, f Filters) []domain.Issue {
	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if f.Status != "" && issue.Status != f.Status {
			continue
		}
		if f.Priority != "" && issue.Priority != f.Priority {
			continue
		}
		if f.ObjectID != "" && issue.ObjectID != f.ObjectID {
			continue
		}
		out = append(out, issue)
	}
	return out
}
