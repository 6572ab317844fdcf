package drift

import (
	"strings"
	"time"

	pathutils "github.com/temirov/gitfleet/internal/utils/path"
)

const (
	defaultRootConstant             = "."
	defaultFormatConstant           = "text"
	defaultFetchParallelismConstant = 4
)

// CommandConfiguration captures the drift section of the configuration file.
type CommandConfiguration struct {
	Roots            []string      `mapstructure:"roots"`
	Format           string        `mapstructure:"format"`
	FetchParallelism int           `mapstructure:"fetch_parallelism"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// DefaultCommandConfiguration provides baseline configuration values for the drift report.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Roots:            []string{defaultRootConstant},
		Format:           defaultFormatConstant,
		FetchParallelism: defaultFetchParallelismConstant,
		OperationTimeout: 0,
	}
}

// Sanitize normalizes configured values and restores defaults for empty ones.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Roots = sanitizeRoots(configuration.Roots)
	if len(sanitized.Roots) == 0 {
		sanitized.Roots = []string{defaultRootConstant}
	}
	sanitized.Format = strings.ToLower(strings.TrimSpace(configuration.Format))
	if len(sanitized.Format) == 0 {
		sanitized.Format = defaultFormatConstant
	}
	if sanitized.FetchParallelism < 0 {
		sanitized.FetchParallelism = 0
	}
	if sanitized.OperationTimeout < 0 {
		sanitized.OperationTimeout = 0
	}
	return sanitized
}

func sanitizeRoots(raw []string) []string {
	expander := pathutils.NewHomeExpander()
	roots := make([]string, 0, len(raw))
	for _, root := range raw {
		trimmed := strings.TrimSpace(root)
		if len(trimmed) == 0 {
			continue
		}
		roots = append(roots, expander.Expand(trimmed))
	}
	return roots
}
