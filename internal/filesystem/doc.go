// Package filesystem provides the operating-system backed FileSystem used by fleet services.
package filesystem
