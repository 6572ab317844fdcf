package submodules

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/shared"
)

const (
	gitSubmoduleSubcommandConstant       = "submodule"
	gitSubmoduleUpdateActionConstant     = "update"
	gitSubmoduleInitFlagConstant         = "--init"
	gitSubmoduleRecursiveFlagConstant    = "--recursive"
	gitSubmoduleForeachActionConstant    = "foreach"
	gitSubmoduleQuietFlagConstant        = "--quiet"
	gitSubmoduleDisplayPathCommand       = `echo "$displaypath"`
	gitFetchSubcommandConstant           = "fetch"
	gitFetchPruneFlagConstant            = "--prune"
	pathSegmentSeparatorConstant         = "/"
	repositoryRootLogFieldConstant       = "repository_root"
	repositoryPathLogFieldConstant       = "repository_path"
	nestedRepositoryCountLogField        = "nested_repositories"
	failureCountLogFieldConstant         = "failures"
	depthLogFieldConstant                = "depth"
	initializeStartedMessageConstant     = "Initializing nested repositories"
	initializeCompletedMessageConstant   = "Nested repositories initialized"
	fetchLevelStartedMessageConstant     = "Fetching nested repositories"
	fetchFailedMessageConstant           = "Nested repository fetch failed"
	fetchCompletedMessageConstant        = "Nested repository fetch finished"
	submoduleUpdateFailedMessageConstant = "Nested repository initialization failed"
)

// Settings tunes walker behavior.
type Settings struct {
	// FetchParallelism bounds concurrent sibling fetches; zero or less means unbounded.
	FetchParallelism int
	// OperationTimeout bounds each git invocation; zero disables the bound.
	OperationTimeout time.Duration
}

// Dependencies enumerates external collaborators required by the walker.
type Dependencies struct {
	GitExecutor shared.GitExecutor
	Logger      *zap.Logger
}

// FetchSummary aggregates the outcome of FetchAll.
type FetchSummary struct {
	// Repositories lists nested repository paths relative to the root in traversal order.
	Repositories []string
	// Failures maps relative paths to RemoteFetchError values.
	Failures map[string]error
}

// FailureFor returns the fetch failure recorded for relativePath, or nil.
func (summary FetchSummary) FailureFor(relativePath string) error {
	return summary.Failures[relativePath]
}

// Err joins every failure in traversal order, or returns nil when all fetches succeeded.
func (summary FetchSummary) Err() error {
	failures := make([]error, 0, len(summary.Failures))
	for _, relativePath := range summary.Repositories {
		if failure, exists := summary.Failures[relativePath]; exists {
			failures = append(failures, failure)
		}
	}
	return errors.Join(failures...)
}

// Service walks, initializes and fetches nested repositories through git.
type Service struct {
	executor shared.GitExecutor
	logger   *zap.Logger
	settings Settings
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies, settings Settings) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{executor: dependencies.GitExecutor, logger: logger, settings: settings}, nil
}

// InitializeAndUpdate recursively initializes nested repositories and checks out the
// commits recorded by their parents. Re-running on an initialized tree succeeds.
func (service *Service) InitializeAndUpdate(executionContext context.Context, repositoryRoot string) error {
	trimmedRoot := strings.TrimSpace(repositoryRoot)
	if len(trimmedRoot) == 0 {
		return ErrRepositoryRootRequired
	}

	service.logger.Info(initializeStartedMessageConstant, zap.String(repositoryRootLogFieldConstant, trimmedRoot))
	_, updateError := service.executeGit(executionContext, trimmedRoot, gitSubmoduleSubcommandConstant, gitSubmoduleUpdateActionConstant, gitSubmoduleInitFlagConstant, gitSubmoduleRecursiveFlagConstant)
	if updateError != nil {
		service.logger.Warn(submoduleUpdateFailedMessageConstant, zap.String(repositoryRootLogFieldConstant, trimmedRoot), zap.Error(updateError))
		return SubmoduleUpdateError{Path: trimmedRoot, Cause: updateError}
	}
	service.logger.Info(initializeCompletedMessageConstant, zap.String(repositoryRootLogFieldConstant, trimmedRoot))
	return nil
}

// Discover lists every initialized nested repository beneath repositoryRoot, transitively,
// as paths relative to the root in depth-first, parent-before-children order.
func (service *Service) Discover(executionContext context.Context, repositoryRoot string) ([]string, error) {
	trimmedRoot := strings.TrimSpace(repositoryRoot)
	if len(trimmedRoot) == 0 {
		return nil, ErrRepositoryRootRequired
	}

	executionResult, listError := service.executeGit(executionContext, trimmedRoot, gitSubmoduleSubcommandConstant, gitSubmoduleForeachActionConstant, gitSubmoduleRecursiveFlagConstant, gitSubmoduleQuietFlagConstant, gitSubmoduleDisplayPathCommand)
	if listError != nil {
		return nil, fmt.Errorf(discoveryErrorTemplateConstant, trimmedRoot, listError)
	}

	var nestedRepositories []string
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		relativePath := strings.TrimSpace(outputLine)
		if len(relativePath) == 0 {
			continue
		}
		nestedRepositories = append(nestedRepositories, filepath.ToSlash(relativePath))
	}
	return nestedRepositories, nil
}

// FetchAll refreshes remote-tracking state of every nested repository. Parents are fetched
// before their children; siblings at one depth are fetched concurrently. A failed fetch is
// recorded in the summary and never stops the walk; only discovery failures are returned.
func (service *Service) FetchAll(executionContext context.Context, repositoryRoot string) (FetchSummary, error) {
	nestedRepositories, discoveryError := service.Discover(executionContext, repositoryRoot)
	if discoveryError != nil {
		return FetchSummary{}, discoveryError
	}
	trimmedRoot := strings.TrimSpace(repositoryRoot)

	depths := nestingDepths(nestedRepositories)
	indexesByDepth := lo.GroupBy(lo.Range(len(nestedRepositories)), func(repositoryIndex int) int {
		return depths[repositoryIndex]
	})
	orderedDepths := lo.Keys(indexesByDepth)
	slices.Sort(orderedDepths)

	fetchErrors := make([]error, len(nestedRepositories))
	for _, depth := range orderedDepths {
		levelIndexes := indexesByDepth[depth]
		service.logger.Debug(fetchLevelStartedMessageConstant, zap.String(repositoryRootLogFieldConstant, trimmedRoot), zap.Int(depthLogFieldConstant, depth), zap.Int(nestedRepositoryCountLogField, len(levelIndexes)))

		var levelGroup errgroup.Group
		if service.settings.FetchParallelism > 0 {
			levelGroup.SetLimit(service.settings.FetchParallelism)
		}
		for _, repositoryIndex := range levelIndexes {
			levelGroup.Go(func() error {
				relativePath := nestedRepositories[repositoryIndex]
				repositoryPath := filepath.Join(trimmedRoot, filepath.FromSlash(relativePath))
				if _, fetchError := service.executeGit(executionContext, repositoryPath, gitFetchSubcommandConstant, gitFetchPruneFlagConstant, shared.OriginRemoteNameConstant); fetchError != nil {
					fetchErrors[repositoryIndex] = RemoteFetchError{Path: relativePath, Cause: fetchError}
				}
				return nil
			})
		}
		_ = levelGroup.Wait()
	}

	summary := FetchSummary{Repositories: nestedRepositories, Failures: make(map[string]error)}
	for repositoryIndex, fetchError := range fetchErrors {
		if fetchError == nil {
			continue
		}
		summary.Failures[nestedRepositories[repositoryIndex]] = fetchError
		service.logger.Warn(fetchFailedMessageConstant, zap.String(repositoryPathLogFieldConstant, nestedRepositories[repositoryIndex]), zap.Error(fetchError))
	}
	service.logger.Info(fetchCompletedMessageConstant, zap.String(repositoryRootLogFieldConstant, trimmedRoot), zap.Int(nestedRepositoryCountLogField, len(nestedRepositories)), zap.Int(failureCountLogFieldConstant, len(summary.Failures)))
	return summary, nil
}

func (service *Service) executeGit(executionContext context.Context, workingDirectory string, arguments ...string) (execshell.ExecutionResult, error) {
	operationContext, cancelOperation := shared.WithOptionalTimeout(executionContext, service.settings.OperationTimeout)
	defer cancelOperation()
	return service.executor.ExecuteGit(operationContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: shared.NonInteractiveEnvironment(),
	})
}

// nestingDepths derives each path's nesting depth from a depth-first listing: a path is a
// child of the closest preceding path that prefixes it.
func nestingDepths(relativePaths []string) []int {
	depths := make([]int, len(relativePaths))
	var ancestors []string
	for pathIndex, relativePath := range relativePaths {
		for len(ancestors) > 0 && !strings.HasPrefix(relativePath, ancestors[len(ancestors)-1]+pathSegmentSeparatorConstant) {
			ancestors = ancestors[:len(ancestors)-1]
		}
		depths[pathIndex] = len(ancestors)
		ancestors = append(ancestors, relativePath)
	}
	return depths
}
