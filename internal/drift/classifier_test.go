package drift_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/internal/drift"
	"github.com/temirov/gitfleet/internal/execshell"
)

const (
	nestedRepositoryPathConstant = "/workspace/cfs/libs/core"
	headCommandConstant          = "rev-parse HEAD"
	developmentRefCommand        = "show-ref --verify --quiet refs/remotes/origin/development"
	mainRefCommand               = "show-ref --verify --quiet refs/remotes/origin/main"
	developmentCommitCommand     = "rev-parse origin/development"
	mainCommitCommand            = "rev-parse origin/main"
	developmentBehindCommand     = "rev-list --count HEAD..origin/development"
	developmentAheadCommand      = "rev-list --count origin/development..HEAD"
)

type scriptedResponse struct {
	output string
	err    error
}

// scriptedGitExecutor answers by joined arguments; unscripted commands exit with code 1.
type scriptedGitExecutor struct {
	responses map[string]scriptedResponse
	recorded  []string
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	key := strings.Join(details.Arguments, " ")
	executor.recorded = append(executor.recorded, key)
	response, exists := executor.responses[key]
	if !exists {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  execshell.ExecutionResult{ExitCode: 1},
		}
	}
	if response.err != nil {
		return execshell.ExecutionResult{}, response.err
	}
	return execshell.ExecutionResult{StandardOutput: response.output}, nil
}

func intValue(value int) *int {
	return &value
}

func TestNewClassifierRequiresExecutor(testInstance *testing.T) {
	classifier, creationError := drift.NewClassifier(nil, 0)
	require.Nil(testInstance, classifier)
	require.ErrorIs(testInstance, creationError, drift.ErrGitExecutorNotConfigured)
}

func TestClassifierClassify(testInstance *testing.T) {
	testCases := []struct {
		name             string
		responses        map[string]scriptedResponse
		expectedStatus   drift.Status
		expectedBranch   string
		expectedCommit   string
		expectedBehind   *int
		expectedAhead    *int
		expectedCommands []string
		expectProblem    bool
	}{
		{
			name: "equal_commits_are_up_to_date",
			responses: map[string]scriptedResponse{
				headCommandConstant:      {output: "abc123\n"},
				developmentRefCommand:    {},
				developmentCommitCommand: {output: "abc123\n"},
			},
			expectedStatus:   drift.StatusUpToDate,
			expectedBranch:   "development",
			expectedCommit:   "abc123",
			expectedBehind:   intValue(0),
			expectedAhead:    intValue(0),
			expectedCommands: []string{headCommandConstant, developmentRefCommand, developmentCommitCommand},
		},
		{
			name: "differing_commits_are_behind_or_diverged",
			responses: map[string]scriptedResponse{
				headCommandConstant:      {output: "abc123\n"},
				developmentRefCommand:    {},
				developmentCommitCommand: {output: "def456\n"},
				developmentBehindCommand: {output: "3\n"},
				developmentAheadCommand:  {output: "0\n"},
			},
			expectedStatus: drift.StatusBehindOrDiverged,
			expectedBranch: "development",
			expectedCommit: "abc123",
			expectedBehind: intValue(3),
			expectedAhead:  intValue(0),
			expectedCommands: []string{
				headCommandConstant, developmentRefCommand, developmentCommitCommand, developmentBehindCommand, developmentAheadCommand,
			},
		},
		{
			name: "falls_back_to_main",
			responses: map[string]scriptedResponse{
				headCommandConstant: {output: "abc123\n"},
				mainRefCommand:      {},
				mainCommitCommand:   {output: "abc123\n"},
			},
			expectedStatus:   drift.StatusUpToDate,
			expectedBranch:   "main",
			expectedCommit:   "abc123",
			expectedBehind:   intValue(0),
			expectedAhead:    intValue(0),
			expectedCommands: []string{headCommandConstant, developmentRefCommand, mainRefCommand, mainCommitCommand},
		},
		{
			name: "prefers_development_over_main",
			responses: map[string]scriptedResponse{
				headCommandConstant:      {output: "abc123\n"},
				developmentRefCommand:    {},
				mainRefCommand:           {},
				developmentCommitCommand: {output: "abc123\n"},
				mainCommitCommand:        {output: "fff000\n"},
			},
			expectedStatus:   drift.StatusUpToDate,
			expectedBranch:   "development",
			expectedCommit:   "abc123",
			expectedBehind:   intValue(0),
			expectedAhead:    intValue(0),
			expectedCommands: []string{headCommandConstant, developmentRefCommand, developmentCommitCommand},
		},
		{
			name: "missing_tracking_branch_is_indeterminate",
			responses: map[string]scriptedResponse{
				headCommandConstant: {output: "abc123\n"},
			},
			expectedStatus:   drift.StatusIndeterminate,
			expectedCommit:   "abc123",
			expectedCommands: []string{headCommandConstant, developmentRefCommand, mainRefCommand},
			expectProblem:    true,
		},
		{
			name:             "unresolvable_head_is_indeterminate",
			responses:        map[string]scriptedResponse{},
			expectedStatus:   drift.StatusIndeterminate,
			expectedCommands: []string{headCommandConstant},
			expectProblem:    true,
		},
		{
			name: "unresolvable_remote_commit_is_indeterminate",
			responses: map[string]scriptedResponse{
				headCommandConstant:   {output: "abc123\n"},
				developmentRefCommand: {},
			},
			expectedStatus:   drift.StatusIndeterminate,
			expectedBranch:   "development",
			expectedCommit:   "abc123",
			expectedCommands: []string{headCommandConstant, developmentRefCommand, developmentCommitCommand},
			expectProblem:    true,
		},
		{
			name: "failed_branch_lookup_stops_without_fallback",
			responses: map[string]scriptedResponse{
				headCommandConstant:   {output: "abc123\n"},
				developmentRefCommand: {err: errors.New("signal: killed")},
				mainRefCommand:        {},
			},
			expectedStatus:   drift.StatusIndeterminate,
			expectedCommit:   "abc123",
			expectedCommands: []string{headCommandConstant, developmentRefCommand},
			expectProblem:    true,
		},
		{
			name: "failed_count_keeps_status",
			responses: map[string]scriptedResponse{
				headCommandConstant:      {output: "abc123\n"},
				developmentRefCommand:    {},
				developmentCommitCommand: {output: "def456\n"},
			},
			expectedStatus: drift.StatusBehindOrDiverged,
			expectedBranch: "development",
			expectedCommit: "abc123",
			expectedCommands: []string{
				headCommandConstant, developmentRefCommand, developmentCommitCommand, developmentBehindCommand, developmentAheadCommand,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: testCase.responses}
			classifier, creationError := drift.NewClassifier(executor, 0)
			require.NoError(testInstance, creationError)

			repository := classifier.Classify(context.Background(), nestedRepositoryPathConstant)

			require.Equal(testInstance, nestedRepositoryPathConstant, repository.RelativePath)
			require.Equal(testInstance, testCase.expectedStatus, repository.Status)
			require.Equal(testInstance, testCase.expectedBranch, repository.TrackingBranch)
			require.Equal(testInstance, testCase.expectedCommit, repository.CurrentCommit)
			require.Equal(testInstance, testCase.expectedBehind, repository.BehindCount)
			require.Equal(testInstance, testCase.expectedAhead, repository.AheadCount)
			require.Equal(testInstance, testCase.expectedCommands, executor.recorded)

			if !testCase.expectProblem {
				require.NoError(testInstance, repository.Problem)
				return
			}
			var indeterminateError drift.BranchResolutionIndeterminateError
			require.ErrorAs(testInstance, repository.Problem, &indeterminateError)
			require.Equal(testInstance, nestedRepositoryPathConstant, indeterminateError.Path)
		})
	}
}

type blockingGitExecutor struct{}

func (blockingGitExecutor) ExecuteGit(executionContext context.Context, _ execshell.CommandDetails) (execshell.ExecutionResult, error) {
	<-executionContext.Done()
	return execshell.ExecutionResult{}, executionContext.Err()
}

func TestClassifierTreatsTimeoutAsIndeterminate(testInstance *testing.T) {
	classifier, creationError := drift.NewClassifier(blockingGitExecutor{}, 10*time.Millisecond)
	require.NoError(testInstance, creationError)

	repository := classifier.Classify(context.Background(), nestedRepositoryPathConstant)

	require.Equal(testInstance, drift.StatusIndeterminate, repository.Status)
	require.ErrorIs(testInstance, repository.Problem, context.DeadlineExceeded)
}

func TestStatusLabels(testInstance *testing.T) {
	require.Equal(testInstance, "UP TO DATE", drift.StatusUpToDate.Label())
	require.Equal(testInstance, "BEHIND OR DIVERGED", drift.StatusBehindOrDiverged.Label())
	require.Equal(testInstance, "INDETERMINATE", drift.StatusIndeterminate.Label())
	require.Equal(testInstance, []string{"development", "main"}, drift.TrackingBranchPreference())
}
