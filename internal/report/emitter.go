package report

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/temirov/gitfleet/internal/drift"
)

const (
	bannerTitleConstant           = "Nested repository drift report"
	trackingPreferenceTemplate    = "Tracking preference: %s"
	trackingPreferenceSeparator   = ", "
	pathLineTemplateConstant      = "Path: %s"
	commitLineTemplateConstant    = "Commit: %s"
	trackingBranchLineTemplate    = "Tracking branch: %s"
	statusLineTemplateConstant    = "Status: %s"
	behindLineTemplateConstant    = "Behind: %s"
	noTrackingBranchValueConstant = "none"
	unknownValueConstant          = "unknown"
	separatorCharacterConstant    = "-"
	separatorWidthConstant        = 40
)

// Record is the structured form of one classified nested repository.
type Record struct {
	Path           string       `json:"path" yaml:"path"`
	CurrentCommit  string       `json:"current_commit" yaml:"current_commit"`
	TrackingBranch string       `json:"tracking_branch" yaml:"tracking_branch"`
	Status         drift.Status `json:"status" yaml:"status"`
	BehindCount    string       `json:"behind_count" yaml:"behind_count"`
	AheadCount     string       `json:"ahead_count" yaml:"ahead_count"`
	Problem        string       `json:"problem,omitempty" yaml:"problem,omitempty"`
}

// Report is an immutable snapshot of classified repositories. Its sequences may be
// iterated any number of times without touching git again.
type Report struct {
	repositories []drift.NestedRepository
}

// Emit snapshots repositories, preserving traversal order.
func Emit(repositories []drift.NestedRepository) Report {
	return Report{repositories: slices.Clone(repositories)}
}

// Len reports the number of repositories in the report.
func (report Report) Len() int {
	return len(report.repositories)
}

// Records yields one Record per repository in traversal order.
func (report Report) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, repository := range report.repositories {
			if !yield(newRecord(repository)) {
				return
			}
		}
	}
}

// Lines yields the plain-text report: the banner followed by one block per repository.
func (report Report) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, bannerLine := range Banner() {
			if !yield(bannerLine) {
				return
			}
		}
		for record := range report.Records() {
			for _, blockLine := range record.blockLines(record.Status.Label()) {
				if !yield(blockLine) {
					return
				}
			}
		}
	}
}

// Banner returns the fixed two-line report header.
func Banner() []string {
	return []string{
		bannerTitleConstant,
		fmt.Sprintf(trackingPreferenceTemplate, strings.Join(drift.TrackingBranchPreference(), trackingPreferenceSeparator)),
	}
}

// Separator returns the fixed-width line between repository blocks.
func Separator() string {
	return strings.Repeat(separatorCharacterConstant, separatorWidthConstant)
}

func (record Record) blockLines(statusLabel string) []string {
	return []string{
		fmt.Sprintf(pathLineTemplateConstant, record.Path),
		fmt.Sprintf(commitLineTemplateConstant, record.CurrentCommit),
		fmt.Sprintf(trackingBranchLineTemplate, record.TrackingBranch),
		fmt.Sprintf(statusLineTemplateConstant, statusLabel),
		fmt.Sprintf(behindLineTemplateConstant, record.BehindCount),
		Separator(),
	}
}

func newRecord(repository drift.NestedRepository) Record {
	record := Record{
		Path:           repository.RelativePath,
		CurrentCommit:  valueOrUnknown(repository.CurrentCommit),
		TrackingBranch: noTrackingBranchValueConstant,
		Status:         repository.Status,
		BehindCount:    formatCount(repository.BehindCount),
		AheadCount:     formatCount(repository.AheadCount),
	}
	if repository.HasTrackingBranch() {
		record.TrackingBranch = repository.TrackingBranch
	}
	if repository.Problem != nil {
		record.Problem = repository.Problem.Error()
	}
	return record
}

func formatCount(count *int) string {
	if count == nil {
		return unknownValueConstant
	}
	return strconv.Itoa(*count)
}

func valueOrUnknown(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return unknownValueConstant
	}
	return value
}
