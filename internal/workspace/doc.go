// Package workspace bootstraps per-task workspaces by cloning a fleet of repositories
// concurrently and initializing the nested repositories of the primary one.
package workspace
