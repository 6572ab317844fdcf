// Package cli assembles the gitfleet command tree.
//
// Application loads layered configuration (embedded defaults, config.yaml from the
// working directory or the user configuration directory, an explicit --config file and
// GITFLEET_* environment variables), builds the zap logger and registers the
// workspace-bootstrap and submodule-drift commands.
package cli
