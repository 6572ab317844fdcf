package workspace

import (
	"errors"
	"fmt"
)

const (
	missingArgumentMessageConstant          = "task identifier is required"
	workspaceRootRequiredMessageConstant    = "workspace root is required"
	gitExecutorMissingMessageConstant       = "git executor not configured"
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	fileSystemMissingMessageConstant        = "filesystem not configured"
	walkerMissingMessageConstant            = "nested repository walker not configured"
	conflictingCloneTargetMessageConstant   = "clone target exists with conflicting content"
	cloneTargetMissingMessageConstant       = "clone target directory is missing"
	incompleteCloneTargetMessageConstant    = "clone target has no checked out commit; remove it and rerun"
	directoryCreateErrorTemplateConstant    = "unable to create workspace directory %s: %v"
	cloneVerificationErrorTemplateConstant  = "repository %s failed to clone: %v"
	notADirectoryMessageConstant            = "path exists and is not a directory"
)

// ErrMissingArgument indicates the task identifier was absent or unusable as a directory name.
var ErrMissingArgument = errors.New(missingArgumentMessageConstant)

// ErrWorkspaceRootRequired indicates an empty workspace root.
var ErrWorkspaceRootRequired = errors.New(workspaceRootRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrFileSystemNotConfigured indicates the filesystem dependency was missing.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// ErrWalkerNotConfigured indicates the nested repository walker dependency was missing.
var ErrWalkerNotConfigured = errors.New(walkerMissingMessageConstant)

// ErrConflictingCloneTarget indicates a clone target that exists but is not a clone of the expected remote.
var ErrConflictingCloneTarget = errors.New(conflictingCloneTargetMessageConstant)

// ErrCloneTargetMissing indicates a clone that reported success but left no directory behind.
var ErrCloneTargetMissing = errors.New(cloneTargetMissingMessageConstant)

// ErrIncompleteCloneTarget indicates a clone target whose origin matches but whose HEAD does not resolve,
// as left behind by an interrupted clone.
var ErrIncompleteCloneTarget = errors.New(incompleteCloneTargetMessageConstant)

var errNotADirectory = errors.New(notADirectoryMessageConstant)

// DirectoryCreateError reports a workspace directory that could not be created.
type DirectoryCreateError struct {
	Path  string
	Cause error
}

func (directoryError DirectoryCreateError) Error() string {
	return fmt.Sprintf(directoryCreateErrorTemplateConstant, directoryError.Path, directoryError.Cause)
}

// Unwrap exposes the underlying filesystem failure.
func (directoryError DirectoryCreateError) Unwrap() error {
	return directoryError.Cause
}

// CloneVerificationError reports a repository that is not present in the workspace after cloning.
type CloneVerificationError struct {
	Repository string
	Cause      error
}

func (verificationError CloneVerificationError) Error() string {
	return fmt.Sprintf(cloneVerificationErrorTemplateConstant, verificationError.Repository, verificationError.Cause)
}

// Unwrap exposes the clone failure.
func (verificationError CloneVerificationError) Unwrap() error {
	return verificationError.Cause
}
