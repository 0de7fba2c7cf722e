package domain

import "errors"

// ErrIssueNotFound is returned when no issue matches the requested id,
// and also when the caller lacks access to the issue's project, so
// inaccessible issues are indistinguishable from absent ones.
var ErrIssueNotFound = errors.New("issue not found")
