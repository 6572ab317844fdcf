// Package execshell provides structured helpers for invoking git.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle
// notifications, OSCommandRunner performs the actual process execution, and
// CommandMessageFormatter renders human-readable descriptions of the git
// invocations gitfleet issues while cloning, walking submodules, and
// classifying drift.
package execshell
