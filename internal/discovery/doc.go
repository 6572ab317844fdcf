// Package discovery finds top-level git repositories beneath directories that are not repositories themselves.
package discovery
