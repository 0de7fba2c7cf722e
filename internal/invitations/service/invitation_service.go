package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bim-viewer/bim-viewer-backend/internal/projects/domain"
)

var (
	ErrNotProjectOwner = errors.New("only the project owner can invite users")
	ErrEmailRequired   = errors.New("email is required")
)

type AccessEngine interface {
	IsOwner(ctx context.Context, subject, projectID string) (bool, error)
	Grant(ctx context.Context, projectID, userID, role string) (*domain.Permission, error)
}

type Directory interface {
	LookupByEmail(ctx context.Context, email string) (string, error)
}

// InvitationService lets a project owner add collaborators by email.
type InvitationService struct {
	acl AccessEngine
	dir Directory
}

func NewInvitationService(acl AccessEngine, dir Directory) *InvitationService {
	return &InvitationService{acl: acl, dir: dir}
}

// Invite grants the collaborator role on the project to the user behind
// the given email. Only the project owner may invite, and a non-owner is
// refused before the directory is consulted, so the email's existence is
// never revealed to them.
func (s *InvitationService) Invite(ctx context.Context, subject, projectID, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}

	owner, err := s.acl.IsOwner(ctx, subject, projectID)
	if err != nil {
		return err
	}
	if !owner {
		return ErrNotProjectOwner
	}

	userID, err := s.dir.LookupByEmail(ctx, email)
	if err != nil {
		return err
	}

	if _, err := s.acl.Grant(ctx, projectID, userID, domain.RoleCollaborator); err != nil {
		return err
	}
	return nil
}
