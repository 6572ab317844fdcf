package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/shared"
)

const (
	gitRevParseSubcommandConstant        = "rev-parse"
	gitIsInsideWorkTreeFlagConstant      = "--is-inside-work-tree"
	gitRemoteSubcommandConstant          = "remote"
	gitRemoteGetURLSubcommandConstant    = "get-url"
	gitTrueOutputConstant                = "true"
	repositoryPathRequiredMessage        = "repository path must be provided"
	remoteNameRequiredMessage            = "remote name must be provided"
	executorNotConfiguredMessageConstant = "git executor not configured"
	remoteLookupErrorTemplateConstant    = "unable to read remote %s in %s: %w"
)

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrRepositoryPathRequired indicates an empty repository path argument.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessage)

// ErrRemoteNameRequired indicates an empty remote name argument.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessage)

// RepositoryManager answers repository-level questions by invoking git.
type RepositoryManager struct {
	executor shared.GitExecutor
}

// NewRepositoryManager validates the executor and constructs a RepositoryManager.
func NewRepositoryManager(executor shared.GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsWorkTree reports whether repositoryPath lies inside a git work tree. A git
// failure means "not a work tree"; only argument errors are returned.
func (manager *RepositoryManager) IsWorkTree(executionContext context.Context, repositoryPath string) (bool, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return false, ErrRepositoryPathRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitRevParseSubcommandConstant, gitIsInsideWorkTreeFlagConstant},
		WorkingDirectory:     trimmedPath,
		EnvironmentVariables: shared.NonInteractiveEnvironment(),
	})
	if executionError != nil {
		return false, nil
	}
	return strings.TrimSpace(executionResult.StandardOutput) == gitTrueOutputConstant, nil
}

// GetRemoteURL returns the configured URL of remoteName.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return "", ErrRepositoryPathRequired
	}
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return "", ErrRemoteNameRequired
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, trimmedRemote},
		WorkingDirectory:     trimmedPath,
		EnvironmentVariables: shared.NonInteractiveEnvironment(),
	})
	if executionError != nil {
		return "", fmt.Errorf(remoteLookupErrorTemplateConstant, trimmedRemote, trimmedPath, executionError)
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}
