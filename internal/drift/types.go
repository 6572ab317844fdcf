package drift

// Status classifies a nested repository against its tracked branch.
type Status string

// Supported statuses.
const (
	StatusUpToDate         Status = Status("UP_TO_DATE")
	StatusBehindOrDiverged Status = Status("BEHIND_OR_DIVERGED")
	StatusIndeterminate    Status = Status("INDETERMINATE")
)

const (
	upToDateLabelConstant         = "UP TO DATE"
	behindOrDivergedLabelConstant = "BEHIND OR DIVERGED"
	indeterminateLabelConstant    = "INDETERMINATE"
)

// Label returns the human-readable form of the status.
func (status Status) Label() string {
	switch status {
	case StatusUpToDate:
		return upToDateLabelConstant
	case StatusBehindOrDiverged:
		return behindOrDivergedLabelConstant
	default:
		return indeterminateLabelConstant
	}
}

var trackingBranchPreference = []string{"development", "main"}

// TrackingBranchPreference lists candidate tracking branches in priority order.
func TrackingBranchPreference() []string {
	return append([]string{}, trackingBranchPreference...)
}

// NestedRepository captures the classification of one nested repository. Optional
// values are empty strings or nil pointers when they could not be resolved.
type NestedRepository struct {
	RelativePath   string
	CurrentCommit  string
	TrackingBranch string
	RemoteCommit   string
	Status         Status
	BehindCount    *int
	AheadCount     *int
	Problem        error
}

// HasTrackingBranch reports whether a tracking branch was resolved.
func (repository NestedRepository) HasTrackingBranch() bool {
	return len(repository.TrackingBranch) > 0
}

// markIndeterminate forces the repository into INDETERMINATE with the supplied problem.
func (repository NestedRepository) markIndeterminate(problem error) NestedRepository {
	repository.Status = StatusIndeterminate
	repository.BehindCount = nil
	repository.AheadCount = nil
	repository.Problem = problem
	return repository
}
