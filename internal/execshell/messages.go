package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitCloneSubcommandNameConstant        = "clone"
	gitSubmoduleSubcommandNameConstant    = "submodule"
	gitSubmoduleUpdateActionConstant      = "update"
	gitSubmoduleForeachActionConstant     = "foreach"
	gitFetchSubcommandNameConstant        = "fetch"
	gitRevParseSubcommandNameConstant     = "rev-parse"
	gitRevListSubcommandNameConstant      = "rev-list"
	gitShowRefSubcommandNameConstant      = "show-ref"
	gitRemoteSubcommandNameConstant       = "remote"
	gitRemoteGetURLSubcommandNameConstant = "get-url"
	gitWorkTreeFlagConstant               = "--is-inside-work-tree"
	gitCountFlagConstant                  = "--count"
	gitFetchAllRemotesLabelConstant       = "all remotes"
)

const (
	gitCloneStartTemplateConstant                    = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant                  = "Cloned %s into %s"
	gitCloneFailureTemplateConstant                  = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant         = "Unable to clone %s into %s: %s"
	gitSubmoduleUpdateStartTemplateConstant          = "Initializing nested repositories in %s"
	gitSubmoduleUpdateSuccessTemplateConstant        = "Nested repositories in %s are initialized"
	gitSubmoduleUpdateFailureTemplateConstant        = "Failed to initialize nested repositories in %s (exit code %d%s)"
	gitSubmoduleUpdateExecutionFailureTemplate       = "Unable to initialize nested repositories in %s: %s"
	gitSubmoduleForeachStartTemplateConstant         = "Listing nested repositories in %s"
	gitSubmoduleForeachSuccessTemplateConstant       = "Listed nested repositories in %s"
	gitSubmoduleForeachFailureTemplateConstant       = "Failed to list nested repositories in %s (exit code %d%s)"
	gitSubmoduleForeachExecutionFailureTemplate      = "Unable to list nested repositories in %s: %s"
	gitFetchStartTemplateConstant                    = "Fetching from %s in %s"
	gitFetchSuccessTemplateConstant                  = "Fetched from %s in %s"
	gitFetchFailureTemplateConstant                  = "Failed to fetch from %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant         = "Unable to fetch from %s in %s: %s"
	gitWorkTreeStartTemplateConstant                 = "Analyzing repository at %s"
	gitWorkTreeSuccessTemplateConstant               = "%s is a Git repository"
	gitWorkTreeFailureTemplateConstant               = "Could not confirm %s is a Git repository (exit code %d%s)"
	gitWorkTreeExecutionFailureTemplateConstant      = "Could not analyze %s: %s"
	gitRevisionStartTemplateConstant                 = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant               = "%s in %s resolved to %s"
	gitRevisionFailureTemplateConstant               = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplateConstant      = "Unable to resolve %s in %s: %s"
	gitRevisionCountStartTemplateConstant            = "Counting commits in %s for %s"
	gitRevisionCountSuccessTemplateConstant          = "Counted commits in %s for %s"
	gitRevisionCountFailureTemplateConstant          = "Failed to count commits in %s for %s (exit code %d%s)"
	gitRevisionCountExecutionFailureTemplateConstant = "Unable to count commits in %s for %s: %s"
	gitShowRefStartTemplateConstant                  = "Checking for %s in %s"
	gitShowRefSuccessTemplateConstant                = "%s exists in %s"
	gitShowRefFailureTemplateConstant                = "%s is absent in %s (exit code %d%s)"
	gitShowRefExecutionFailureTemplateConstant       = "Unable to check for %s in %s: %s"
	gitRemoteLookupStartTemplateConstant             = "Checking %s remote for %s"
	gitRemoteLookupSuccessTemplateConstant           = "%s remote for %s points to %s"
	gitRemoteLookupFailureTemplateConstant           = "Failed to read %s remote for %s (exit code %d%s)"
	gitRemoteLookupExecutionFailureTemplateConstant  = "Unable to read %s remote for %s: %s"
)

// stageTemplates holds one message template per lifecycle stage.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitCloneSubcommandNameConstant:
		positional := formatter.positionalArguments(arguments[1:])
		source := formatter.ensureValue(formatter.argumentAtIndex(positional, 0))
		target := formatter.ensureValue(formatter.argumentAtIndex(positional, 1))
		return formatter.render(stageTemplates{
			start:            gitCloneStartTemplateConstant,
			success:          gitCloneSuccessTemplateConstant,
			failure:          gitCloneFailureTemplateConstant,
			executionFailure: gitCloneExecutionFailureTemplateConstant,
		}, stage, result, failure, source, target)
	case gitSubmoduleSubcommandNameConstant:
		return formatter.describeSubmoduleMessage(command, result, failure, stage)
	case gitFetchSubcommandNameConstant:
		remoteName := formatter.argumentAtIndex(formatter.positionalArguments(arguments[1:]), 0)
		if len(strings.TrimSpace(remoteName)) == 0 {
			remoteName = gitFetchAllRemotesLabelConstant
		}
		return formatter.render(stageTemplates{
			start:            gitFetchStartTemplateConstant,
			success:          gitFetchSuccessTemplateConstant,
			failure:          gitFetchFailureTemplateConstant,
			executionFailure: gitFetchExecutionFailureTemplateConstant,
		}, stage, result, failure, remoteName, workingDirectory)
	case gitRevParseSubcommandNameConstant:
		if containsArgument(arguments, gitWorkTreeFlagConstant) {
			return formatter.render(stageTemplates{
				start:            gitWorkTreeStartTemplateConstant,
				success:          gitWorkTreeSuccessTemplateConstant,
				failure:          gitWorkTreeFailureTemplateConstant,
				executionFailure: gitWorkTreeExecutionFailureTemplateConstant,
			}, stage, result, failure, workingDirectory)
		}
		revision := formatter.resolveRevisionReference(arguments)
		if stage == messageStageSuccess {
			return fmt.Sprintf(gitRevisionSuccessTemplateConstant, revision, workingDirectory, formatter.ensureValue(result.StandardOutput))
		}
		return formatter.render(stageTemplates{
			start:            gitRevisionStartTemplateConstant,
			failure:          gitRevisionFailureTemplateConstant,
			executionFailure: gitRevisionExecutionFailureTemplateConstant,
		}, stage, result, failure, revision, workingDirectory)
	case gitRevListSubcommandNameConstant:
		if !containsArgument(arguments, gitCountFlagConstant) {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		return formatter.render(stageTemplates{
			start:            gitRevisionCountStartTemplateConstant,
			success:          gitRevisionCountSuccessTemplateConstant,
			failure:          gitRevisionCountFailureTemplateConstant,
			executionFailure: gitRevisionCountExecutionFailureTemplateConstant,
		}, stage, result, failure, workingDirectory, formatter.resolveRevisionReference(arguments))
	case gitShowRefSubcommandNameConstant:
		return formatter.render(stageTemplates{
			start:            gitShowRefStartTemplateConstant,
			success:          gitShowRefSuccessTemplateConstant,
			failure:          gitShowRefFailureTemplateConstant,
			executionFailure: gitShowRefExecutionFailureTemplateConstant,
		}, stage, result, failure, formatter.resolveRevisionReference(arguments), workingDirectory)
	case gitRemoteSubcommandNameConstant:
		if strings.TrimSpace(formatter.argumentAtIndex(arguments, 1)) != gitRemoteGetURLSubcommandNameConstant {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
		if stage == messageStageSuccess {
			return fmt.Sprintf(gitRemoteLookupSuccessTemplateConstant, remoteName, workingDirectory, formatter.ensureValue(result.StandardOutput))
		}
		return formatter.render(stageTemplates{
			start:            gitRemoteLookupStartTemplateConstant,
			failure:          gitRemoteLookupFailureTemplateConstant,
			executionFailure: gitRemoteLookupExecutionFailureTemplateConstant,
		}, stage, result, failure, remoteName, workingDirectory)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSubmoduleMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch strings.TrimSpace(formatter.argumentAtIndex(command.Details.Arguments, 1)) {
	case gitSubmoduleUpdateActionConstant:
		return formatter.render(stageTemplates{
			start:            gitSubmoduleUpdateStartTemplateConstant,
			success:          gitSubmoduleUpdateSuccessTemplateConstant,
			failure:          gitSubmoduleUpdateFailureTemplateConstant,
			executionFailure: gitSubmoduleUpdateExecutionFailureTemplate,
		}, stage, result, failure, workingDirectory)
	case gitSubmoduleForeachActionConstant:
		return formatter.render(stageTemplates{
			start:            gitSubmoduleForeachStartTemplateConstant,
			success:          gitSubmoduleForeachSuccessTemplateConstant,
			failure:          gitSubmoduleForeachFailureTemplateConstant,
			executionFailure: gitSubmoduleForeachExecutionFailureTemplate,
		}, stage, result, failure, workingDirectory)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

// render applies the template for the stage; failure templates receive the exit
// code and stderr suffix after the subject values, execution failures the cause.
func (formatter CommandMessageFormatter) render(templates stageTemplates, stage messageStage, result ExecutionResult, failure error, subjects ...string) string {
	values := make([]any, 0, len(subjects)+2)
	for _, subject := range subjects {
		values = append(values, subject)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, values...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, values...)
	case messageStageFailure:
		values = append(values, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, values...)
	case messageStageExecutionFailure:
		values = append(values, formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure, values...)
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) resolveRevisionReference(arguments []string) string {
	if len(arguments) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return formatter.ensureValue(arguments[len(arguments)-1])
}

func (formatter CommandMessageFormatter) positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
