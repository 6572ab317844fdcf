// Package dependencies supplies default collaborators for commands that were not given explicit ones.
package dependencies
