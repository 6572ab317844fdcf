package drift

import (
	"errors"
	"fmt"
)

const (
	gitExecutorMissingMessageConstant          = "git executor not configured"
	walkerMissingMessageConstant               = "nested repository walker not configured"
	classifierMissingMessageConstant           = "drift classifier not configured"
	repositoryManagerMissingMessageConstant    = "repository manager not configured"
	repositoryDiscovererMissingMessageConstant = "repository discoverer not configured"
	indeterminateErrorTemplateConstant         = "%s: %s"
	indeterminateWithCauseTemplateConstant     = "%s: %s: %v"
	currentCommitUnavailableReasonConstant     = "current commit unavailable"
	trackingBranchMissingReasonConstant        = "no tracking branch among development, main"
	trackingBranchUnknownReasonConstant        = "tracking branch lookup failed"
	remoteCommitUnavailableReasonConstant      = "remote commit unavailable"
	noRepositoriesUnderRootMessageConstant     = "no git repositories found"
	rootUnavailableErrorTemplateConstant       = "root %s cannot be reported: %v"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrWalkerNotConfigured indicates the nested repository walker dependency was missing.
var ErrWalkerNotConfigured = errors.New(walkerMissingMessageConstant)

// ErrClassifierNotConfigured indicates the classifier dependency was missing.
var ErrClassifierNotConfigured = errors.New(classifierMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrRepositoryDiscovererNotConfigured indicates the repository discoverer dependency was missing.
var ErrRepositoryDiscovererNotConfigured = errors.New(repositoryDiscovererMissingMessageConstant)

// ErrNoRepositoriesUnderRoot indicates a root that is neither a repository nor contains any.
var ErrNoRepositoriesUnderRoot = errors.New(noRepositoriesUnderRootMessageConstant)

// RootUnavailableError records a report root, or a repository found under it, whose nested
// repositories could not be listed.
type RootUnavailableError struct {
	Path  string
	Cause error
}

func (unavailableError RootUnavailableError) Error() string {
	return fmt.Sprintf(rootUnavailableErrorTemplateConstant, unavailableError.Path, unavailableError.Cause)
}

// Unwrap exposes the discovery or listing failure.
func (unavailableError RootUnavailableError) Unwrap() error {
	return unavailableError.Cause
}

// BranchResolutionIndeterminateError records why a repository could not be classified.
// It is attached to the repository and never aborts a walk.
type BranchResolutionIndeterminateError struct {
	Path   string
	Reason string
	Cause  error
}

func (indeterminateError BranchResolutionIndeterminateError) Error() string {
	if indeterminateError.Cause == nil {
		return fmt.Sprintf(indeterminateErrorTemplateConstant, indeterminateError.Path, indeterminateError.Reason)
	}
	return fmt.Sprintf(indeterminateWithCauseTemplateConstant, indeterminateError.Path, indeterminateError.Reason, indeterminateError.Cause)
}

// Unwrap exposes the underlying git failure, if any.
func (indeterminateError BranchResolutionIndeterminateError) Unwrap() error {
	return indeterminateError.Cause
}
