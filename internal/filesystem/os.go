package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OSFileSystem implements shared.FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// RemoveAll deletes path and everything beneath it.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// IsDirectory reports whether path exists and is a directory.
func IsDirectory(fileSystem interface {
	Stat(path string) (fs.FileInfo, error)
}, path string) bool {
	fileInfo, statError := fileSystem.Stat(path)
	if statError != nil {
		return false
	}
	return fileInfo.IsDir()
}
