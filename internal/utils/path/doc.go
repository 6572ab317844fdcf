// Package pathutils expands user-supplied paths from flags and configuration.
package pathutils
