package workspace_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/filesystem"
	"github.com/temirov/gitfleet/internal/fleet"
	"github.com/temirov/gitfleet/internal/submodules"
	"github.com/temirov/gitfleet/internal/workspace"
)

const (
	testTaskIdentifierConstant = "TICKET-1"
	testCFSRemoteConstant      = "https://github.com/example/cfs.git"
	testCoreRemoteConstant     = "https://github.com/example/core.git"
	testToolsRemoteConstant    = "git@github.com:example/tools.git"
)

// cloningGitExecutor simulates git clone by creating <working directory>/<name>/.git.
// Submodule invocations succeed without side effects. HEAD resolves everywhere except in
// unbornRepositories. Clones of blockingRemotes leave a partial target and wait for cancellation.
type cloningGitExecutor struct {
	failingRemotes     map[string]bool
	blockingRemotes    map[string]bool
	unbornRepositories map[string]bool
	delay              time.Duration

	mutex         sync.Mutex
	clonedRemotes []string
	activeClones  atomic.Int32
	maximumClones atomic.Int32
}

func (executor *cloningGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if len(details.Arguments) > 0 && details.Arguments[0] == "submodule" {
		return execshell.ExecutionResult{}, nil
	}
	if len(details.Arguments) > 0 && details.Arguments[0] == "rev-parse" {
		if executor.unbornRepositories[details.WorkingDirectory] {
			return execshell.ExecutionResult{}, execshell.CommandFailedError{
				Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
				Result:  execshell.ExecutionResult{ExitCode: 1},
			}
		}
		return execshell.ExecutionResult{StandardOutput: "abc123\n"}, nil
	}
	if len(details.Arguments) != 3 || details.Arguments[0] != "clone" {
		return execshell.ExecutionResult{}, errors.New("unexpected git invocation")
	}
	active := executor.activeClones.Add(1)
	defer executor.activeClones.Add(-1)
	for {
		observed := executor.maximumClones.Load()
		if active <= observed || executor.maximumClones.CompareAndSwap(observed, active) {
			break
		}
	}
	if executor.delay > 0 {
		time.Sleep(executor.delay)
	}

	remoteURL := details.Arguments[1]
	executor.mutex.Lock()
	executor.clonedRemotes = append(executor.clonedRemotes, remoteURL)
	executor.mutex.Unlock()

	if executor.failingRemotes[remoteURL] {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: repository not found"},
		}
	}
	targetPath := filepath.Join(details.WorkingDirectory, details.Arguments[2], ".git")
	if executor.blockingRemotes[remoteURL] {
		if creationError := os.MkdirAll(targetPath, 0o755); creationError != nil {
			return execshell.ExecutionResult{}, creationError
		}
		<-executionContext.Done()
		return execshell.ExecutionResult{}, execshell.CommandExecutionError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Cause:   executionContext.Err(),
		}
	}
	if creationError := os.MkdirAll(targetPath, 0o755); creationError != nil {
		return execshell.ExecutionResult{}, creationError
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *cloningGitExecutor) clonedCount() int {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	return len(executor.clonedRemotes)
}

type stubRepositoryManager struct {
	remotes map[string]string
}

func (manager stubRepositoryManager) IsWorkTree(_ context.Context, repositoryPath string) (bool, error) {
	_, exists := manager.remotes[repositoryPath]
	return exists, nil
}

func (manager stubRepositoryManager) GetRemoteURL(_ context.Context, repositoryPath string, _ string) (string, error) {
	remoteURL, exists := manager.remotes[repositoryPath]
	if !exists {
		return "", errors.New("no such remote")
	}
	return remoteURL, nil
}

type recordingWalker struct {
	err   error
	roots []string
}

func (walker *recordingWalker) InitializeAndUpdate(_ context.Context, repositoryRoot string) error {
	walker.roots = append(walker.roots, repositoryRoot)
	return walker.err
}

func buildDescriptorSet(testInstance *testing.T) fleet.DescriptorSet {
	testInstance.Helper()
	descriptorSet, setError := fleet.NewDescriptorSet([]fleet.RepositoryDescriptor{
		{RemoteURL: testCFSRemoteConstant},
		{RemoteURL: testCoreRemoteConstant},
		{RemoteURL: testToolsRemoteConstant},
	}, "cfs")
	require.NoError(testInstance, setError)
	return descriptorSet
}

func buildService(testInstance *testing.T, executor *cloningGitExecutor, manager stubRepositoryManager, walker *recordingWalker, settings workspace.Settings, logger *zap.Logger) *workspace.Service {
	testInstance.Helper()
	service, serviceError := workspace.NewService(workspace.Dependencies{
		GitExecutor:       executor,
		RepositoryManager: manager,
		FileSystem:        filesystem.OSFileSystem{},
		Walker:            walker,
		Logger:            logger,
	}, settings)
	require.NoError(testInstance, serviceError)
	return service
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	complete := workspace.Dependencies{
		GitExecutor:       &cloningGitExecutor{},
		RepositoryManager: stubRepositoryManager{},
		FileSystem:        filesystem.OSFileSystem{},
		Walker:            &recordingWalker{},
	}

	testCases := []struct {
		name          string
		mutate        func(*workspace.Dependencies)
		expectedError error
	}{
		{name: "missing_executor", mutate: func(dependencies *workspace.Dependencies) { dependencies.GitExecutor = nil }, expectedError: workspace.ErrGitExecutorNotConfigured},
		{name: "missing_manager", mutate: func(dependencies *workspace.Dependencies) { dependencies.RepositoryManager = nil }, expectedError: workspace.ErrRepositoryManagerNotConfigured},
		{name: "missing_filesystem", mutate: func(dependencies *workspace.Dependencies) { dependencies.FileSystem = nil }, expectedError: workspace.ErrFileSystemNotConfigured},
		{name: "missing_walker", mutate: func(dependencies *workspace.Dependencies) { dependencies.Walker = nil }, expectedError: workspace.ErrWalkerNotConfigured},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			dependencies := complete
			testCase.mutate(&dependencies)
			service, serviceError := workspace.NewService(dependencies, workspace.Settings{})
			require.Nil(testInstance, service)
			require.ErrorIs(testInstance, serviceError, testCase.expectedError)
		})
	}
}

func TestBootstrapClonesEveryRepositoryAndInitializesPrimary(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	executor := &cloningGitExecutor{}
	walker := &recordingWalker{}
	observedCore, observedLogs := observer.New(zap.InfoLevel)
	service := buildService(testInstance, executor, stubRepositoryManager{}, walker, workspace.Settings{}, zap.New(observedCore))

	result, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: workspaceRoot,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	require.NoError(testInstance, bootstrapError)

	expectedPath := filepath.Join(workspaceRoot, testTaskIdentifierConstant)
	require.Equal(testInstance, workspace.Workspace{TaskID: testTaskIdentifierConstant, RootPath: expectedPath}, result)
	require.ElementsMatch(testInstance, []string{testCFSRemoteConstant, testCoreRemoteConstant, testToolsRemoteConstant}, executor.clonedRemotes)
	for _, name := range []string{"cfs", "core", "tools"} {
		require.DirExists(testInstance, filepath.Join(expectedPath, name))
	}
	require.Equal(testInstance, []string{filepath.Join(expectedPath, "cfs")}, walker.roots)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Workspace ready").Len())
}

func TestBootstrapReportsEveryFailedClone(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	executor := &cloningGitExecutor{failingRemotes: map[string]bool{testCoreRemoteConstant: true, testToolsRemoteConstant: true}}
	walker := &recordingWalker{}
	service := buildService(testInstance, executor, stubRepositoryManager{}, walker, workspace.Settings{}, nil)

	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: workspaceRoot,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	require.Error(testInstance, bootstrapError)
	require.Contains(testInstance, bootstrapError.Error(), "repository core failed to clone")
	require.Contains(testInstance, bootstrapError.Error(), "repository tools failed to clone")
	require.NotContains(testInstance, bootstrapError.Error(), "repository cfs")

	var verificationError workspace.CloneVerificationError
	require.ErrorAs(testInstance, bootstrapError, &verificationError)
	var commandError execshell.CommandFailedError
	require.ErrorAs(testInstance, bootstrapError, &commandError)

	require.Equal(testInstance, 3, executor.clonedCount())
	require.Empty(testInstance, walker.roots)
}

func TestBootstrapRejectsConflictingCloneTarget(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	conflictingPath := filepath.Join(workspaceRoot, testTaskIdentifierConstant, "core")
	require.NoError(testInstance, os.MkdirAll(conflictingPath, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(conflictingPath, "notes.txt"), []byte("scratch"), 0o644))

	executor := &cloningGitExecutor{}
	walker := &recordingWalker{}
	service := buildService(testInstance, executor, stubRepositoryManager{}, walker, workspace.Settings{}, nil)

	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: workspaceRoot,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	require.ErrorIs(testInstance, bootstrapError, workspace.ErrConflictingCloneTarget)
	require.Contains(testInstance, bootstrapError.Error(), "repository core")
	require.ElementsMatch(testInstance, []string{testCFSRemoteConstant, testToolsRemoteConstant}, executor.clonedRemotes)
	require.Empty(testInstance, walker.roots)
}

func TestBootstrapReusesMatchingClone(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	existingPath := filepath.Join(workspaceRoot, testTaskIdentifierConstant, "tools")
	require.NoError(testInstance, os.MkdirAll(filepath.Join(existingPath, ".git"), 0o755))

	executor := &cloningGitExecutor{}
	walker := &recordingWalker{}
	manager := stubRepositoryManager{remotes: map[string]string{existingPath: "ssh://git@github.com/example/tools"}}
	observedCore, observedLogs := observer.New(zap.InfoLevel)
	service := buildService(testInstance, executor, manager, walker, workspace.Settings{}, zap.New(observedCore))

	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: workspaceRoot,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	require.NoError(testInstance, bootstrapError)
	require.ElementsMatch(testInstance, []string{testCFSRemoteConstant, testCoreRemoteConstant}, executor.clonedRemotes)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Existing clone reused").Len())
	readyEntries := observedLogs.FilterMessage("Workspace ready").All()
	require.Len(testInstance, readyEntries, 1)
	require.EqualValues(testInstance, 1, readyEntries[0].ContextMap()["reused"])
}

func TestBootstrapReportsDirectoryCreationFailure(testInstance *testing.T) {
	blockingFile := filepath.Join(testInstance.TempDir(), "occupied")
	require.NoError(testInstance, os.WriteFile(blockingFile, []byte("file"), 0o644))

	executor := &cloningGitExecutor{}
	service := buildService(testInstance, executor, stubRepositoryManager{}, &recordingWalker{}, workspace.Settings{}, nil)

	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: blockingFile,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	var directoryError workspace.DirectoryCreateError
	require.ErrorAs(testInstance, bootstrapError, &directoryError)
	require.Equal(testInstance, filepath.Join(blockingFile, testTaskIdentifierConstant), directoryError.Path)
	require.Zero(testInstance, executor.clonedCount())
}

func TestBootstrapWrapsNestedRepositoryFailure(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	walker := &recordingWalker{err: errors.New("fatal: reference is not a tree")}
	service := buildService(testInstance, &cloningGitExecutor{}, stubRepositoryManager{}, walker, workspace.Settings{}, nil)

	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: workspaceRoot,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	var submoduleError submodules.SubmoduleUpdateError
	require.ErrorAs(testInstance, bootstrapError, &submoduleError)
	require.Equal(testInstance, filepath.Join(workspaceRoot, testTaskIdentifierConstant, "cfs"), submoduleError.Path)
}

func TestBootstrapHonorsParallelismLimit(testInstance *testing.T) {
	descriptors := make([]fleet.RepositoryDescriptor, 0, 6)
	for _, name := range []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"} {
		descriptors = append(descriptors, fleet.RepositoryDescriptor{RemoteURL: "https://github.com/example/" + name + ".git"})
	}
	descriptorSet, setError := fleet.NewDescriptorSet(descriptors, "")
	require.NoError(testInstance, setError)

	executor := &cloningGitExecutor{delay: 20 * time.Millisecond}
	service := buildService(testInstance, executor, stubRepositoryManager{}, &recordingWalker{}, workspace.Settings{Parallelism: 2}, nil)

	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: testInstance.TempDir(),
		Descriptors:   descriptorSet,
	})
	require.NoError(testInstance, bootstrapError)
	require.Equal(testInstance, 6, executor.clonedCount())
	require.LessOrEqual(testInstance, executor.maximumClones.Load(), int32(2))
}

func TestBootstrapRejectsUnusableTaskIdentifier(testInstance *testing.T) {
	for _, taskIdentifier := range []string{"", "  ", ".", "..", "nested/task", `nested\task`} {
		testInstance.Run(taskIdentifier, func(testInstance *testing.T) {
			executor := &cloningGitExecutor{}
			service := buildService(testInstance, executor, stubRepositoryManager{}, &recordingWalker{}, workspace.Settings{}, nil)
			_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
				TaskID:        taskIdentifier,
				WorkspaceRoot: testInstance.TempDir(),
				Descriptors:   buildDescriptorSet(testInstance),
			})
			require.ErrorIs(testInstance, bootstrapError, workspace.ErrMissingArgument)
			require.Zero(testInstance, executor.clonedCount())
		})
	}
}

func TestBootstrapRequiresRepositories(testInstance *testing.T) {
	service := buildService(testInstance, &cloningGitExecutor{}, stubRepositoryManager{}, &recordingWalker{}, workspace.Settings{}, nil)
	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: testInstance.TempDir(),
	})
	require.ErrorIs(testInstance, bootstrapError, fleet.ErrNoRepositories)
}

func TestBootstrapRejectsExistingCloneWithoutCommits(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	interruptedPath := filepath.Join(workspaceRoot, testTaskIdentifierConstant, "cfs")
	require.NoError(testInstance, os.MkdirAll(filepath.Join(interruptedPath, ".git"), 0o755))

	executor := &cloningGitExecutor{unbornRepositories: map[string]bool{interruptedPath: true}}
	walker := &recordingWalker{}
	manager := stubRepositoryManager{remotes: map[string]string{interruptedPath: testCFSRemoteConstant}}
	service := buildService(testInstance, executor, manager, walker, workspace.Settings{}, nil)

	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: workspaceRoot,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	var verificationError workspace.CloneVerificationError
	require.ErrorAs(testInstance, bootstrapError, &verificationError)
	require.Equal(testInstance, "cfs", verificationError.Repository)
	require.ErrorIs(testInstance, bootstrapError, workspace.ErrIncompleteCloneTarget)
	require.ElementsMatch(testInstance, []string{testCoreRemoteConstant, testToolsRemoteConstant}, executor.clonedRemotes)
	require.Empty(testInstance, walker.roots)
}

func TestBootstrapFailsTimedOutCloneAndRemovesPartialTarget(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	workspacePath := filepath.Join(workspaceRoot, testTaskIdentifierConstant)
	executor := &cloningGitExecutor{blockingRemotes: map[string]bool{testCoreRemoteConstant: true}}
	walker := &recordingWalker{}
	manager := stubRepositoryManager{remotes: map[string]string{
		filepath.Join(workspacePath, "cfs"):   testCFSRemoteConstant,
		filepath.Join(workspacePath, "tools"): testToolsRemoteConstant,
	}}
	service := buildService(testInstance, executor, manager, walker, workspace.Settings{CloneTimeout: 50 * time.Millisecond}, nil)

	_, bootstrapError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: workspaceRoot,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	var verificationError workspace.CloneVerificationError
	require.ErrorAs(testInstance, bootstrapError, &verificationError)
	require.Equal(testInstance, "core", verificationError.Repository)
	require.ErrorIs(testInstance, bootstrapError, context.DeadlineExceeded)
	require.NotContains(testInstance, bootstrapError.Error(), "repository cfs")
	require.NotContains(testInstance, bootstrapError.Error(), "repository tools")
	require.Empty(testInstance, walker.roots)

	require.NoDirExists(testInstance, filepath.Join(workspacePath, "core"))
	require.DirExists(testInstance, filepath.Join(workspacePath, "cfs"))

	// once the remote is reachable again the rerun clones it instead of reusing leftovers
	executor.blockingRemotes = nil
	_, rerunError := service.Bootstrap(context.Background(), workspace.Options{
		TaskID:        testTaskIdentifierConstant,
		WorkspaceRoot: workspaceRoot,
		Descriptors:   buildDescriptorSet(testInstance),
	})
	require.NoError(testInstance, rerunError)
	require.DirExists(testInstance, filepath.Join(workspacePath, "core"))
	require.Equal(testInstance, []string{testCoreRemoteConstant}, executor.clonedRemotes[len(executor.clonedRemotes)-1:])
	require.Equal(testInstance, []string{filepath.Join(workspacePath, "cfs")}, walker.roots)
}
