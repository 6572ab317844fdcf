package workspace

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/dependencies"
	"github.com/temirov/gitfleet/internal/fleet"
	"github.com/temirov/gitfleet/internal/shared"
	"github.com/temirov/gitfleet/internal/submodules"
	pathutils "github.com/temirov/gitfleet/internal/utils/path"
)

const (
	commandUseConstant                    = "workspace-bootstrap <task_id>"
	commandShortDescriptionConstant       = "Clone the repository fleet into a per-task workspace"
	commandLongDescriptionConstant        = "workspace-bootstrap creates <workspace_root>/<task_id>, clones every configured repository into it concurrently, and initializes the nested repositories of the primary repository."
	workspaceRootFlagNameConstant         = "workspace-root"
	workspaceRootFlagDescription          = "Directory that holds per-task workspaces"
	parallelismFlagNameConstant           = "parallelism"
	parallelismFlagDescriptionConstant    = "Maximum concurrent clones (0 clones every repository at once)"
	workspaceReadyMessageTemplateConstant = "WORKSPACE READY: %s\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the workspace-bootstrap command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	GitRepositoryManager         shared.GitRepositoryManager
	FileSystem                   shared.FileSystem
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the workspace-bootstrap command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(workspaceRootFlagNameConstant, "", workspaceRootFlagDescription)
	command.Flags().Int(parallelismFlagNameConstant, 0, parallelismFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		_ = command.Usage()
		return ErrMissingArgument
	}

	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(workspaceRootFlagNameConstant) {
		workspaceRoot, flagError := command.Flags().GetString(workspaceRootFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.WorkspaceRoot = pathutils.NewHomeExpander().Expand(workspaceRoot)
	}
	if command.Flags().Changed(parallelismFlagNameConstant) {
		parallelism, flagError := command.Flags().GetInt(parallelismFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.Parallelism = max(parallelism, 0)
	}

	descriptorSet, descriptorError := fleet.NewDescriptorSet(configuration.Repositories, configuration.PrimaryRepository)
	if descriptorError != nil {
		return descriptorError
	}

	logger := builder.resolveLogger()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return executorError
	}
	repositoryManager, managerError := dependencies.ResolveGitRepositoryManager(builder.GitRepositoryManager, gitExecutor)
	if managerError != nil {
		return managerError
	}

	walker, walkerError := submodules.NewService(submodules.Dependencies{GitExecutor: gitExecutor, Logger: logger}, submodules.Settings{})
	if walkerError != nil {
		return walkerError
	}

	service, serviceError := NewService(Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: repositoryManager,
		FileSystem:        dependencies.ResolveFileSystem(builder.FileSystem),
		Walker:            walker,
		Logger:            logger,
	}, Settings{Parallelism: configuration.Parallelism, CloneTimeout: configuration.CloneTimeout})
	if serviceError != nil {
		return serviceError
	}

	workspace, bootstrapError := service.Bootstrap(command.Context(), Options{
		TaskID:        arguments[0],
		WorkspaceRoot: configuration.WorkspaceRoot,
		Descriptors:   descriptorSet,
	})
	if bootstrapError != nil {
		return bootstrapError
	}

	shared.NewWriterReporter(command.OutOrStdout()).Printf(workspaceReadyMessageTemplateConstant, workspace.RootPath)
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().Sanitize()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
