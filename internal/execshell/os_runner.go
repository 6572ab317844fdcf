package execshell

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"os"
	"os/exec"
	"slices"
)

// OSCommandRunner starts real processes through os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the command and waits for it. Non-zero exits are returned as results;
// a process killed because its context expired is returned as the context error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), slices.Clone(command.Details.Arguments)...)
	process.Dir = command.Details.WorkingDirectory
	process.Env = processEnvironment(command.Details.EnvironmentVariables)

	var standardOutput, standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	runError := process.Run()
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}

	result := ExecutionResult{StandardOutput: standardOutput.String(), StandardError: standardError.String()}
	var exitError *exec.ExitError
	switch {
	case runError == nil:
		return result, nil
	case errors.As(runError, &exitError):
		result.ExitCode = exitError.ExitCode()
		return result, nil
	default:
		return ExecutionResult{}, runError
	}
}

// processEnvironment returns nil (inherit) when there are no overrides, otherwise the
// parent environment followed by the overrides in key order.
func processEnvironment(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	environment := os.Environ()
	for _, key := range slices.Sorted(maps.Keys(overrides)) {
		environment = append(environment, key+"="+overrides[key])
	}
	return environment
}
