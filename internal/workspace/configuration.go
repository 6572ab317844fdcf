package workspace

import (
	"strings"
	"time"

	"github.com/temirov/gitfleet/internal/fleet"
	pathutils "github.com/temirov/gitfleet/internal/utils/path"
)

const defaultWorkspaceRootConstant = "~/workspaces"

// CommandConfiguration captures the bootstrap section of the configuration file.
type CommandConfiguration struct {
	WorkspaceRoot     string                       `mapstructure:"workspace_root"`
	PrimaryRepository string                       `mapstructure:"primary_repository"`
	Parallelism       int                          `mapstructure:"parallelism"`
	CloneTimeout      time.Duration                `mapstructure:"clone_timeout"`
	Repositories      []fleet.RepositoryDescriptor `mapstructure:"repositories"`
}

// DefaultCommandConfiguration provides baseline configuration values for workspace bootstrap.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		WorkspaceRoot:     defaultWorkspaceRootConstant,
		PrimaryRepository: "",
		Parallelism:       0,
		CloneTimeout:      0,
		Repositories:      nil,
	}
}

// Sanitize trims values, expands the home shortcut in the workspace root and applies defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.WorkspaceRoot = strings.TrimSpace(configuration.WorkspaceRoot)
	if len(sanitized.WorkspaceRoot) == 0 {
		sanitized.WorkspaceRoot = defaultWorkspaceRootConstant
	}
	sanitized.WorkspaceRoot = pathutils.NewHomeExpander().Expand(sanitized.WorkspaceRoot)
	sanitized.PrimaryRepository = strings.TrimSpace(configuration.PrimaryRepository)
	if sanitized.Parallelism < 0 {
		sanitized.Parallelism = 0
	}
	if sanitized.CloneTimeout < 0 {
		sanitized.CloneTimeout = 0
	}
	sanitized.Repositories = append([]fleet.RepositoryDescriptor{}, configuration.Repositories...)

	return sanitized
}
