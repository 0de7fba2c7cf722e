package domain

import "errors"

var (
	// ErrProjectNotFound is returned both when a project does not exist
	// and when the caller has no permission row for it, so callers cannot
	// probe for the existence of projects they were never invited to.
	ErrProjectNotFound = errors.New("project not found or access denied")

	ErrPermissionNotFound = errors.New("permission not found")

	ErrProjectNameRequired = errors.New("projectName is required")

	ErrInvalidModelFile = errors.New("invalid or no file selected")

	// ErrLinkUnavailable means the stored model exists as a record but no
	// retrieval link could be generated for it.
	ErrLinkUnavailable = errors.New("could not generate access URL for model")
)
