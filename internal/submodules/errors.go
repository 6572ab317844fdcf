package submodules

import (
	"errors"
	"fmt"
)

const (
	gitExecutorMissingMessageConstant     = "git executor not configured"
	repositoryRootRequiredMessageConstant = "repository root must be provided"
	submoduleUpdateErrorTemplateConstant  = "failed to initialize nested repositories in %s: %v"
	remoteFetchErrorTemplateConstant      = "failed to fetch remote state for %s: %v"
	discoveryErrorTemplateConstant        = "failed to list nested repositories in %s: %w"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryRootRequired indicates an empty repository root argument.
var ErrRepositoryRootRequired = errors.New(repositoryRootRequiredMessageConstant)

// SubmoduleUpdateError reports a failed recursive initialization.
type SubmoduleUpdateError struct {
	Path  string
	Cause error
}

func (updateError SubmoduleUpdateError) Error() string {
	return fmt.Sprintf(submoduleUpdateErrorTemplateConstant, updateError.Path, updateError.Cause)
}

// Unwrap exposes the underlying git failure.
func (updateError SubmoduleUpdateError) Unwrap() error {
	return updateError.Cause
}

// RemoteFetchError reports a nested repository whose fetch failed. It never aborts traversal.
type RemoteFetchError struct {
	Path  string
	Cause error
}

func (fetchError RemoteFetchError) Error() string {
	return fmt.Sprintf(remoteFetchErrorTemplateConstant, fetchError.Path, fetchError.Cause)
}

// Unwrap exposes the underlying git failure.
func (fetchError RemoteFetchError) Unwrap() error {
	return fetchError.Cause
}
