package testsupport

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	gitExecutableName     = "git"
	fixtureAuthorName     = "Fleet Test"
	fixtureAuthorEmail    = "fleet@example.com"
	fixtureBranchName     = "main"
	fixtureDirectoryMode  = 0o755
	fixtureFileMode       = 0o644
	fixtureReadmeName     = "README.md"
	missingGitSkipMessage = "git executable not available"
	quietFlag             = "--quiet"
)

// RequireGit skips the test when git is missing and isolates git from user and system
// configuration for the rest of the test.
func RequireGit(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(gitExecutableName); lookupError != nil {
		testInstance.Skip(missingGitSkipMessage)
	}

	homeDirectory := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectory)
	testInstance.Setenv("XDG_CONFIG_HOME", homeDirectory)
	testInstance.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	testInstance.Setenv("GIT_AUTHOR_NAME", fixtureAuthorName)
	testInstance.Setenv("GIT_AUTHOR_EMAIL", fixtureAuthorEmail)
	testInstance.Setenv("GIT_COMMITTER_NAME", fixtureAuthorName)
	testInstance.Setenv("GIT_COMMITTER_EMAIL", fixtureAuthorEmail)
	// submodules are cloned from local paths, which git refuses by default since 2.38.1
	testInstance.Setenv("GIT_CONFIG_COUNT", "1")
	testInstance.Setenv("GIT_CONFIG_KEY_0", "protocol.file.allow")
	testInstance.Setenv("GIT_CONFIG_VALUE_0", "always")
}

// RunGit runs git in workingDirectory, fails the test on error and returns trimmed stdout.
func RunGit(testInstance *testing.T, workingDirectory string, arguments ...string) string {
	testInstance.Helper()
	command := exec.Command(gitExecutableName, arguments...)
	command.Dir = workingDirectory
	var standardError strings.Builder
	command.Stderr = &standardError
	output, runError := command.Output()
	require.NoError(testInstance, runError, "git %s: %s", strings.Join(arguments, " "), standardError.String())
	return strings.TrimSpace(string(output))
}

// InitRepository creates a repository at repositoryPath with one commit on main.
func InitRepository(testInstance *testing.T, repositoryPath string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(repositoryPath, fixtureDirectoryMode))
	RunGit(testInstance, repositoryPath, "init", quietFlag)
	CommitFile(testInstance, repositoryPath, fixtureReadmeName, "# "+filepath.Base(repositoryPath)+"\n")
	RunGit(testInstance, repositoryPath, "branch", "-M", fixtureBranchName)
}

// CommitFile writes content to name inside the repository and commits it.
func CommitFile(testInstance *testing.T, repositoryPath string, name string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryPath, name), []byte(content), fixtureFileMode))
	RunGit(testInstance, repositoryPath, "add", name)
	RunGit(testInstance, repositoryPath, "commit", quietFlag, "-m", "update "+name)
}

// AddSubmodule registers sourcePath as a nested repository of parentPath at relativePath and commits it.
func AddSubmodule(testInstance *testing.T, parentPath string, sourcePath string, relativePath string) {
	testInstance.Helper()
	RunGit(testInstance, parentPath, "submodule", quietFlag, "add", sourcePath, relativePath)
	RunGit(testInstance, parentPath, "commit", quietFlag, "-m", "add "+relativePath)
}
