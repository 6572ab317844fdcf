package drift

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/dependencies"
	nested "github.com/temirov/gitfleet/internal/drift"
	"github.com/temirov/gitfleet/internal/report"
	"github.com/temirov/gitfleet/internal/shared"
	"github.com/temirov/gitfleet/internal/submodules"
	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	commandUseConstant                      = "submodule-drift [root ...]"
	commandShortDescriptionConstant         = "Report nested repositories that drifted from their upstream branch"
	commandLongDescriptionConstant          = "submodule-drift initializes and fetches every nested repository beneath each root, then reports whether each one matches origin/development or origin/main."
	formatFlagNameConstant                  = "format"
	formatFlagDescriptionConstant           = "Report format"
	fetchParallelismFlagNameConstant        = "fetch-parallelism"
	fetchParallelismFlagDescriptionConstant = "Maximum concurrent fetches per nesting level (0 fetches every sibling at once)"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the submodule-drift command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	GitRepositoryManager         shared.GitRepositoryManager
	Discoverer                   shared.RepositoryDiscoverer
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the submodule-drift command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(formatFlagNameConstant, "", flagutils.FormatChoiceUsage(defaultFormatConstant, report.SupportedFormats(), formatFlagDescriptionConstant))
	command.Flags().Int(fetchParallelismFlagNameConstant, defaultFetchParallelismConstant, fetchParallelismFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(formatFlagNameConstant) {
		formatValue, flagError := command.Flags().GetString(formatFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.Format = formatValue
	}
	if command.Flags().Changed(fetchParallelismFlagNameConstant) {
		fetchParallelism, flagError := command.Flags().GetInt(fetchParallelismFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.FetchParallelism = max(fetchParallelism, 0)
	}
	roots := configuration.Roots
	if argumentRoots := sanitizeRoots(arguments); len(argumentRoots) > 0 {
		roots = argumentRoots
	}

	format, formatError := report.ParseFormat(configuration.Format)
	if formatError != nil {
		return formatError
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

	walker, walkerError := submodules.NewService(
		submodules.Dependencies{GitExecutor: gitExecutor, Logger: logger},
		submodules.Settings{FetchParallelism: configuration.FetchParallelism, OperationTimeout: configuration.OperationTimeout},
	)
	if walkerError != nil {
		return walkerError
	}
	classifier, classifierError := nested.NewClassifier(gitExecutor, configuration.OperationTimeout)
	if classifierError != nil {
		return classifierError
	}

	service, serviceError := nested.NewService(nested.Dependencies{
		Walker:               walker,
		Classifier:           classifier,
		RepositoryManager:    repositoryManager,
		RepositoryDiscoverer: dependencies.ResolveRepositoryDiscoverer(builder.Discoverer),
		Logger:               logger,
	})
	if serviceError != nil {
		return serviceError
	}

	repositories, reportError := service.Report(command.Context(), nested.Options{Roots: roots})
	if reportError != nil {
		return reportError
	}

	output := command.OutOrStdout()
	return report.Render(output, report.Emit(repositories), report.RenderOptions{
		Format:   format,
		Colorize: report.ShouldColorize(output),
	})
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
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
