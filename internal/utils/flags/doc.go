// Package flags provides flag helpers shared by cobra commands.
package flags
