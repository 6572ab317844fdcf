package shared

import (
	"context"
	"io/fs"

	"github.com/temirov/gitfleet/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the upstream remote every fleet repository tracks.
	OriginRemoteNameConstant = "origin"
	// GitTerminalPromptEnvironmentNameConstant disables interactive credential prompts.
	GitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	// GitTerminalPromptDisabledValueConstant is the value that turns terminal prompts off.
	GitTerminalPromptDisabledValueConstant = "0"
)

// FileSystem exposes filesystem operations required by fleet services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	RemoveAll(path string) error
}

// GitExecutor exposes the subset of shell execution used by fleet services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitRepositoryManager exposes repository-level git queries.
type GitRepositoryManager interface {
	IsWorkTree(executionContext context.Context, repositoryPath string) (bool, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}

// RepositoryDiscoverer locates git repositories beneath directories that are not repositories themselves.
type RepositoryDiscoverer interface {
	DiscoverRepositories(roots []string) ([]string, error)
}

// NonInteractiveEnvironment returns the environment applied to every git invocation.
func NonInteractiveEnvironment() map[string]string {
	return map[string]string{GitTerminalPromptEnvironmentNameConstant: GitTerminalPromptDisabledValueConstant}
}
