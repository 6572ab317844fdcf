package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const gitMetadataDirectoryNameConstant = ".git"

// FilesystemRepositoryDiscoverer locates top-level git repositories on disk.
type FilesystemRepositoryDiscoverer struct{}

// NewFilesystemRepositoryDiscoverer constructs a repository discoverer backed by filepath.WalkDir.
func NewFilesystemRepositoryDiscoverer() *FilesystemRepositoryDiscoverer {
	return &FilesystemRepositoryDiscoverer{}
}

// DiscoverRepositories walks the provided roots and returns directories containing a .git entry.
// The walk does not descend into a repository once found, so nested repositories are left
// to the submodule walker.
func (discoverer *FilesystemRepositoryDiscoverer) DiscoverRepositories(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var repositories []string

	for _, root := range roots {
		walkError := filepath.WalkDir(root, func(path string, directoryEntry fs.DirEntry, walkError error) error {
			if walkError != nil {
				return nil
			}
			if !directoryEntry.IsDir() || directoryEntry.Name() == gitMetadataDirectoryNameConstant {
				return nil
			}

			if !containsGitMetadata(path) {
				return nil
			}
			if _, alreadySeen := seen[path]; !alreadySeen {
				seen[path] = struct{}{}
				repositories = append(repositories, path)
			}
			return fs.SkipDir
		})
		if walkError != nil {
			return nil, walkError
		}
	}

	sort.Strings(repositories)
	return repositories, nil
}

func containsGitMetadata(directoryPath string) bool {
	_, statError := os.Lstat(filepath.Join(directoryPath, gitMetadataDirectoryNameConstant))
	return statError == nil
}
