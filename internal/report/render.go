package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitfleet/internal/drift"
)

// Format identifies an output rendering of the report.
type Format string

// Supported report formats.
const (
	FormatText Format = Format("text")
	FormatCSV  Format = Format("csv")
	FormatJSON Format = Format("json")
	FormatYAML Format = Format("yaml")
)

const (
	unsupportedFormatTemplateConstant = "unsupported report format %q"
	lineTerminatorConstant            = "\n"
	jsonIndentConstant                = "  "
	yamlIndentConstant                = 2
	noColorEnvironmentNameConstant    = "NO_COLOR"
	csvHeaderPathConstant             = "path"
	csvHeaderCurrentCommitConstant    = "current_commit"
	csvHeaderTrackingBranchConstant   = "tracking_branch"
	csvHeaderStatusConstant           = "status"
	csvHeaderBehindCountConstant      = "behind_count"
	csvHeaderAheadCountConstant       = "ahead_count"
	csvHeaderProblemConstant          = "problem"
)

// ErrUnsupportedFormat indicates an unknown format name.
var ErrUnsupportedFormat = errors.New("unsupported report format")

var supportedFormats = []Format{FormatText, FormatCSV, FormatJSON, FormatYAML}

// SupportedFormats lists the accepted format names.
func SupportedFormats() []string {
	names := make([]string, 0, len(supportedFormats))
	for _, format := range supportedFormats {
		names = append(names, string(format))
	}
	return names
}

// ParseFormat resolves a format name case-insensitively; an empty name selects text.
func ParseFormat(value string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimSpace(value)))
	if len(normalized) == 0 {
		return FormatText, nil
	}
	if !slices.Contains(supportedFormats, normalized) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
	}
	return normalized, nil
}

// RenderOptions controls report rendering.
type RenderOptions struct {
	Format   Format
	Colorize bool
}

// Render writes the report to writer in the requested format.
func Render(writer io.Writer, report Report, options RenderOptions) error {
	switch options.Format {
	case FormatText, "":
		return renderText(writer, report, options.Colorize)
	case FormatCSV:
		return renderCSV(writer, report)
	case FormatJSON:
		return renderJSON(writer, report)
	case FormatYAML:
		return renderYAML(writer, report)
	default:
		return fmt.Errorf(unsupportedFormatTemplateConstant, options.Format)
	}
}

// ShouldColorize reports whether writer is an interactive terminal that accepts color.
func ShouldColorize(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	if len(os.Getenv(noColorEnvironmentNameConstant)) > 0 {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func renderText(writer io.Writer, report Report, colorize bool) error {
	if !colorize {
		for line := range report.Lines() {
			if _, writeError := io.WriteString(writer, line+lineTerminatorConstant); writeError != nil {
				return writeError
			}
		}
		return nil
	}

	lines := Banner()
	for record := range report.Records() {
		lines = append(lines, record.blockLines(colorizeStatus(record.Status))...)
	}
	for _, line := range lines {
		if _, writeError := io.WriteString(writer, line+lineTerminatorConstant); writeError != nil {
			return writeError
		}
	}
	return nil
}

func colorizeStatus(status drift.Status) string {
	var statusColor *color.Color
	switch status {
	case drift.StatusUpToDate:
		statusColor = color.New(color.FgGreen)
	case drift.StatusBehindOrDiverged:
		statusColor = color.New(color.FgYellow)
	default:
		statusColor = color.New(color.FgRed, color.Bold)
	}
	statusColor.EnableColor()
	return statusColor.Sprint(status.Label())
}

func renderCSV(writer io.Writer, report Report) error {
	csvWriter := csv.NewWriter(writer)
	header := []string{
		csvHeaderPathConstant,
		csvHeaderCurrentCommitConstant,
		csvHeaderTrackingBranchConstant,
		csvHeaderStatusConstant,
		csvHeaderBehindCountConstant,
		csvHeaderAheadCountConstant,
		csvHeaderProblemConstant,
	}
	if writeError := csvWriter.Write(header); writeError != nil {
		return writeError
	}
	for record := range report.Records() {
		if writeError := csvWriter.Write(record.csvRecord()); writeError != nil {
			return writeError
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func (record Record) csvRecord() []string {
	return []string{
		record.Path,
		record.CurrentCommit,
		record.TrackingBranch,
		string(record.Status),
		record.BehindCount,
		record.AheadCount,
		record.Problem,
	}
}

func renderJSON(writer io.Writer, report Report) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", jsonIndentConstant)
	return encoder.Encode(collectRecords(report))
}

func renderYAML(writer io.Writer, report Report) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(yamlIndentConstant)
	if encodeError := encoder.Encode(collectRecords(report)); encodeError != nil {
		return encodeError
	}
	return encoder.Close()
}

func collectRecords(report Report) []Record {
	records := make([]Record, 0, report.Len())
	for record := range report.Records() {
		records = append(records, record)
	}
	return records
}
