package workspace

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/filesystem"
	"github.com/temirov/gitfleet/internal/fleet"
	"github.com/temirov/gitfleet/internal/gitrepo"
	"github.com/temirov/gitfleet/internal/shared"
	"github.com/temirov/gitfleet/internal/submodules"
)

const (
	gitCloneSubcommandConstant         = "clone"
	gitRevParseSubcommandConstant      = "rev-parse"
	gitVerifyFlagConstant              = "--verify"
	gitQuietFlagConstant               = "--quiet"
	gitHeadReferenceConstant           = "HEAD"
	gitMetadataDirectoryNameConstant   = ".git"
	currentDirectoryNameConstant       = "."
	parentDirectoryNameConstant        = ".."
	pathSeparatorCharactersConstant    = `/\`
	workspaceDirectoryPermissions      = 0o755
	taskIdentifierLogFieldConstant     = "task_id"
	workspacePathLogFieldConstant      = "workspace"
	repositoryLogFieldConstant         = "repository"
	remoteLogFieldConstant             = "remote_url"
	repositoryCountLogFieldConstant    = "repositories"
	reusedCountLogFieldConstant        = "reused"
	bootstrapStartedMessageConstant    = "Bootstrapping workspace"
	repositoryClonedMessageConstant    = "Repository cloned"
	repositoryReusedMessageConstant    = "Existing clone reused"
	repositoryCloneFailedMessage       = "Repository clone failed"
	partialCloneRemovalFailedMessage   = "Unable to remove partial clone"
	verificationFailedMessageConstant  = "Workspace verification failed"
	initializingPrimaryMessageConstant = "Initializing nested repositories of primary repository"
	workspaceReadyMessageConstant      = "Workspace ready"
)

// SubmoduleInitializer initializes the nested repositories of a repository tree.
type SubmoduleInitializer interface {
	InitializeAndUpdate(executionContext context.Context, repositoryRoot string) error
}

// Settings tunes clone fan-out.
type Settings struct {
	// Parallelism bounds concurrent clones; zero or less runs one worker per repository.
	Parallelism int
	// CloneTimeout bounds each clone; zero disables the bound.
	CloneTimeout time.Duration
}

// Dependencies enumerates external collaborators required for workspace bootstrap.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
	FileSystem        shared.FileSystem
	Walker            SubmoduleInitializer
	Logger            *zap.Logger
}

// Options configures a bootstrap run.
type Options struct {
	TaskID        string
	WorkspaceRoot string
	Descriptors   fleet.DescriptorSet
}

// Workspace describes a bootstrapped per-task directory.
type Workspace struct {
	TaskID   string
	RootPath string
}

// Service clones a fleet of repositories into a per-task workspace.
type Service struct {
	executor          shared.GitExecutor
	repositoryManager shared.GitRepositoryManager
	fileSystem        shared.FileSystem
	walker            SubmoduleInitializer
	logger            *zap.Logger
	settings          Settings
}

type cloneOutcome struct {
	reused bool
	err    error
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies, settings Settings) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Walker == nil {
		return nil, ErrWalkerNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		executor:          dependencies.GitExecutor,
		repositoryManager: dependencies.RepositoryManager,
		fileSystem:        dependencies.FileSystem,
		walker:            dependencies.Walker,
		logger:            logger,
		settings:          settings,
	}, nil
}

// Bootstrap creates <WorkspaceRoot>/<TaskID>, clones every descriptor into it concurrently,
// verifies the clones and initializes the nested repositories of the primary repository.
// Every clone is awaited before verification; all failed repositories are reported together.
func (service *Service) Bootstrap(executionContext context.Context, options Options) (Workspace, error) {
	taskIdentifier := strings.TrimSpace(options.TaskID)
	if !isValidTaskIdentifier(taskIdentifier) {
		return Workspace{}, ErrMissingArgument
	}
	workspaceRoot := strings.TrimSpace(options.WorkspaceRoot)
	if len(workspaceRoot) == 0 {
		return Workspace{}, ErrWorkspaceRootRequired
	}
	if options.Descriptors.Len() == 0 {
		return Workspace{}, fleet.ErrNoRepositories
	}

	workspacePath := filepath.Join(workspaceRoot, taskIdentifier)
	if absolutePath, absError := service.fileSystem.Abs(workspacePath); absError == nil {
		workspacePath = absolutePath
	}
	service.logger.Info(bootstrapStartedMessageConstant,
		zap.String(taskIdentifierLogFieldConstant, taskIdentifier),
		zap.String(workspacePathLogFieldConstant, workspacePath),
		zap.Int(repositoryCountLogFieldConstant, options.Descriptors.Len()),
	)

	if directoryError := service.createWorkspaceDirectory(workspacePath); directoryError != nil {
		return Workspace{}, directoryError
	}

	descriptors := options.Descriptors.Descriptors()
	outcomes := service.cloneAll(executionContext, workspacePath, descriptors)

	if verificationError := service.verifyClones(workspacePath, descriptors, outcomes); verificationError != nil {
		service.logger.Error(verificationFailedMessageConstant, zap.String(workspacePathLogFieldConstant, workspacePath), zap.Error(verificationError))
		return Workspace{}, verificationError
	}

	primaryPath := filepath.Join(workspacePath, options.Descriptors.Primary().Name)
	service.logger.Info(initializingPrimaryMessageConstant, zap.String(repositoryLogFieldConstant, primaryPath))
	if updateError := service.walker.InitializeAndUpdate(executionContext, primaryPath); updateError != nil {
		var submoduleError submodules.SubmoduleUpdateError
		if errors.As(updateError, &submoduleError) {
			return Workspace{}, updateError
		}
		return Workspace{}, submodules.SubmoduleUpdateError{Path: primaryPath, Cause: updateError}
	}

	reusedCount := 0
	for _, outcome := range outcomes {
		if outcome.reused {
			reusedCount++
		}
	}
	service.logger.Info(workspaceReadyMessageConstant, zap.String(workspacePathLogFieldConstant, workspacePath), zap.Int(reusedCountLogFieldConstant, reusedCount))
	return Workspace{TaskID: taskIdentifier, RootPath: workspacePath}, nil
}

func (service *Service) createWorkspaceDirectory(workspacePath string) error {
	if creationError := service.fileSystem.MkdirAll(workspacePath, workspaceDirectoryPermissions); creationError != nil {
		return DirectoryCreateError{Path: workspacePath, Cause: creationError}
	}
	if !filesystem.IsDirectory(service.fileSystem, workspacePath) {
		return DirectoryCreateError{Path: workspacePath, Cause: errNotADirectory}
	}
	return nil
}

// cloneAll runs one clone task per descriptor. Each task owns its slot in the returned
// slice and never cancels its siblings.
func (service *Service) cloneAll(executionContext context.Context, workspacePath string, descriptors []fleet.RepositoryDescriptor) []cloneOutcome {
	outcomes := make([]cloneOutcome, len(descriptors))
	var cloneGroup errgroup.Group
	if service.settings.Parallelism > 0 {
		cloneGroup.SetLimit(service.settings.Parallelism)
	}
	for descriptorIndex, descriptor := range descriptors {
		cloneGroup.Go(func() error {
			outcomes[descriptorIndex] = service.cloneRepository(executionContext, workspacePath, descriptor)
			return nil
		})
	}
	_ = cloneGroup.Wait()
	return outcomes
}

func (service *Service) cloneRepository(executionContext context.Context, workspacePath string, descriptor fleet.RepositoryDescriptor) cloneOutcome {
	targetPath := filepath.Join(workspacePath, descriptor.Name)
	repositoryFields := []zap.Field{zap.String(repositoryLogFieldConstant, descriptor.Name), zap.String(remoteLogFieldConstant, descriptor.RemoteURL)}

	if _, statError := service.fileSystem.Stat(targetPath); statError == nil {
		if reuseError := service.checkExistingClone(executionContext, targetPath, descriptor); reuseError != nil {
			service.logger.Warn(repositoryCloneFailedMessage, append(repositoryFields, zap.Error(reuseError))...)
			return cloneOutcome{err: reuseError}
		}
		service.logger.Info(repositoryReusedMessageConstant, repositoryFields...)
		return cloneOutcome{reused: true}
	}

	cloneContext, cancelClone := shared.WithOptionalTimeout(executionContext, service.settings.CloneTimeout)
	defer cancelClone()
	_, cloneError := service.executor.ExecuteGit(cloneContext, execshell.CommandDetails{
		Arguments:            []string{gitCloneSubcommandConstant, descriptor.RemoteURL, descriptor.Name},
		WorkingDirectory:     workspacePath,
		EnvironmentVariables: shared.NonInteractiveEnvironment(),
	})
	if cloneError != nil {
		service.logger.Warn(repositoryCloneFailedMessage, append(repositoryFields, zap.Error(cloneError))...)
		// The target did not exist before this clone, so whatever is there now is a partial clone.
		if removalError := service.fileSystem.RemoveAll(targetPath); removalError != nil {
			service.logger.Warn(partialCloneRemovalFailedMessage, append(repositoryFields, zap.Error(removalError))...)
		}
		return cloneOutcome{err: cloneError}
	}
	service.logger.Info(repositoryClonedMessageConstant, repositoryFields...)
	return cloneOutcome{}
}

// checkExistingClone accepts targetPath for reuse only when it is a clone of the descriptor's
// remote with a resolvable HEAD.
func (service *Service) checkExistingClone(executionContext context.Context, targetPath string, descriptor fleet.RepositoryDescriptor) error {
	if !filesystem.IsDirectory(service.fileSystem, targetPath) {
		return ErrConflictingCloneTarget
	}
	if _, statError := service.fileSystem.Stat(filepath.Join(targetPath, gitMetadataDirectoryNameConstant)); statError != nil {
		return ErrConflictingCloneTarget
	}
	originURL, lookupError := service.repositoryManager.GetRemoteURL(executionContext, targetPath, shared.OriginRemoteNameConstant)
	if lookupError != nil || !gitrepo.SameRepository(originURL, descriptor.RemoteURL) {
		return ErrConflictingCloneTarget
	}
	_, headError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory:     targetPath,
		EnvironmentVariables: shared.NonInteractiveEnvironment(),
	})
	if headError != nil {
		return ErrIncompleteCloneTarget
	}
	return nil
}

func (service *Service) verifyClones(workspacePath string, descriptors []fleet.RepositoryDescriptor, outcomes []cloneOutcome) error {
	var verificationErrors []error
	for descriptorIndex, descriptor := range descriptors {
		if cloneError := outcomes[descriptorIndex].err; cloneError != nil {
			verificationErrors = append(verificationErrors, CloneVerificationError{Repository: descriptor.Name, Cause: cloneError})
			continue
		}
		if !filesystem.IsDirectory(service.fileSystem, filepath.Join(workspacePath, descriptor.Name)) {
			verificationErrors = append(verificationErrors, CloneVerificationError{Repository: descriptor.Name, Cause: ErrCloneTargetMissing})
		}
	}
	return errors.Join(verificationErrors...)
}

func isValidTaskIdentifier(taskIdentifier string) bool {
	if len(taskIdentifier) == 0 {
		return false
	}
	if taskIdentifier == currentDirectoryNameConstant || taskIdentifier == parentDirectoryNameConstant {
		return false
	}
	return !strings.ContainsAny(taskIdentifier, pathSeparatorCharactersConstant)
}
