package drift

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/shared"
)

const (
	gitRevParseSubcommandConstant   = "rev-parse"
	gitHeadReferenceConstant        = "HEAD"
	gitShowRefSubcommandConstant    = "show-ref"
	gitVerifyFlagConstant           = "--verify"
	gitQuietFlagConstant            = "--quiet"
	gitRevListSubcommandConstant    = "rev-list"
	gitCountFlagConstant            = "--count"
	remoteTrackingRefPrefixConstant = "refs/remotes/"
	revisionRangeSeparatorConstant  = ".."
	referenceSeparatorConstant      = "/"
)

// Classifier resolves the drift of a single repository against its tracked branch.
type Classifier struct {
	executor         shared.GitExecutor
	operationTimeout time.Duration
}

// NewClassifier constructs a Classifier. A positive operationTimeout bounds each git call.
func NewClassifier(executor shared.GitExecutor, operationTimeout time.Duration) (*Classifier, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &Classifier{executor: executor, operationTimeout: operationTimeout}, nil
}

// Classify inspects repositoryPath. Every failure yields an INDETERMINATE repository with
// a BranchResolutionIndeterminateError problem rather than an error.
func (classifier *Classifier) Classify(executionContext context.Context, repositoryPath string) NestedRepository {
	repository := NestedRepository{RelativePath: repositoryPath, Status: StatusIndeterminate}

	currentCommit, headError := classifier.resolveRevision(executionContext, repositoryPath, gitHeadReferenceConstant)
	if headError != nil {
		return repository.markIndeterminate(BranchResolutionIndeterminateError{Path: repositoryPath, Reason: currentCommitUnavailableReasonConstant, Cause: headError})
	}
	repository.CurrentCommit = currentCommit

	trackingBranch, lookupError := classifier.resolveTrackingBranch(executionContext, repositoryPath)
	if lookupError != nil {
		return repository.markIndeterminate(BranchResolutionIndeterminateError{Path: repositoryPath, Reason: trackingBranchUnknownReasonConstant, Cause: lookupError})
	}
	if len(trackingBranch) == 0 {
		return repository.markIndeterminate(BranchResolutionIndeterminateError{Path: repositoryPath, Reason: trackingBranchMissingReasonConstant})
	}
	repository.TrackingBranch = trackingBranch

	remoteBranch := shared.OriginRemoteNameConstant + referenceSeparatorConstant + trackingBranch
	remoteCommit, remoteError := classifier.resolveRevision(executionContext, repositoryPath, remoteBranch)
	if remoteError != nil {
		return repository.markIndeterminate(BranchResolutionIndeterminateError{Path: repositoryPath, Reason: remoteCommitUnavailableReasonConstant, Cause: remoteError})
	}
	repository.RemoteCommit = remoteCommit

	if currentCommit == remoteCommit {
		repository.Status = StatusUpToDate
		repository.BehindCount = intPointer(0)
		repository.AheadCount = intPointer(0)
		return repository
	}

	repository.Status = StatusBehindOrDiverged
	repository.BehindCount = classifier.countCommits(executionContext, repositoryPath, gitHeadReferenceConstant+revisionRangeSeparatorConstant+remoteBranch)
	repository.AheadCount = classifier.countCommits(executionContext, repositoryPath, remoteBranch+revisionRangeSeparatorConstant+gitHeadReferenceConstant)
	return repository
}

// resolveTrackingBranch returns the first preferred branch present on origin, or an empty
// string when none exists. A lookup that could not run at all is returned as an error.
func (classifier *Classifier) resolveTrackingBranch(executionContext context.Context, repositoryPath string) (string, error) {
	for _, candidateBranch := range trackingBranchPreference {
		reference := remoteTrackingRefPrefixConstant + shared.OriginRemoteNameConstant + referenceSeparatorConstant + candidateBranch
		_, lookupError := classifier.executeGit(executionContext, repositoryPath, gitShowRefSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, reference)
		if lookupError == nil {
			return candidateBranch, nil
		}
		if _, exited := execshell.ExitCode(lookupError); !exited {
			return "", lookupError
		}
	}
	return "", nil
}

func (classifier *Classifier) resolveRevision(executionContext context.Context, repositoryPath string, revision string) (string, error) {
	executionResult, executionError := classifier.executeGit(executionContext, repositoryPath, gitRevParseSubcommandConstant, revision)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

func (classifier *Classifier) countCommits(executionContext context.Context, repositoryPath string, revisionRange string) *int {
	executionResult, executionError := classifier.executeGit(executionContext, repositoryPath, gitRevListSubcommandConstant, gitCountFlagConstant, revisionRange)
	if executionError != nil {
		return nil
	}
	count, parseError := strconv.Atoi(strings.TrimSpace(executionResult.StandardOutput))
	if parseError != nil {
		return nil
	}
	return intPointer(count)
}

func (classifier *Classifier) executeGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	operationContext, cancelOperation := shared.WithOptionalTimeout(executionContext, classifier.operationTimeout)
	defer cancelOperation()
	return classifier.executor.ExecuteGit(operationContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: shared.NonInteractiveEnvironment(),
	})
}

func intPointer(value int) *int {
	return &value
}
