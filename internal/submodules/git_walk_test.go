package submodules_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/submodules"
	"github.com/temirov/gitfleet/internal/testsupport"
)

func TestWalkerAgainstNestedGitRepositories(testInstance *testing.T) {
	testsupport.RequireGit(testInstance)
	fixtureRoot := testInstance.TempDir()

	protoSource := filepath.Join(fixtureRoot, "proto")
	coreSource := filepath.Join(fixtureRoot, "core")
	uiSource := filepath.Join(fixtureRoot, "ui")
	cfsSource := filepath.Join(fixtureRoot, "cfs")
	testsupport.InitRepository(testInstance, protoSource)
	testsupport.InitRepository(testInstance, coreSource)
	testsupport.AddSubmodule(testInstance, coreSource, protoSource, "vendor/proto")
	testsupport.InitRepository(testInstance, uiSource)
	testsupport.InitRepository(testInstance, cfsSource)
	testsupport.AddSubmodule(testInstance, cfsSource, coreSource, "libs/core")
	testsupport.AddSubmodule(testInstance, cfsSource, uiSource, "ui")

	checkoutPath := filepath.Join(fixtureRoot, "workspace", "cfs")
	testsupport.RunGit(testInstance, fixtureRoot, "clone", "--quiet", cfsSource, checkoutPath)

	shellExecutor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(testInstance, executorError)
	service, creationError := submodules.NewService(submodules.Dependencies{GitExecutor: shellExecutor}, submodules.Settings{FetchParallelism: 2})
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, service.InitializeAndUpdate(context.Background(), checkoutPath))
	require.FileExists(testInstance, filepath.Join(checkoutPath, "libs", "core", "vendor", "proto", "README.md"))
	require.NoError(testInstance, service.InitializeAndUpdate(context.Background(), checkoutPath))

	nestedRepositories, discoveryError := service.Discover(context.Background(), checkoutPath)
	require.NoError(testInstance, discoveryError)
	require.Equal(testInstance, []string{"libs/core", "libs/core/vendor/proto", "ui"}, nestedRepositories)

	testsupport.CommitFile(testInstance, uiSource, "CHANGELOG.md", "first\n")
	summary, fetchError := service.FetchAll(context.Background(), checkoutPath)
	require.NoError(testInstance, fetchError)
	require.NoError(testInstance, summary.Err())
	require.Equal(testInstance, nestedRepositories, summary.Repositories)

	upstreamHead := testsupport.RunGit(testInstance, uiSource, "rev-parse", "HEAD")
	fetchedHead := testsupport.RunGit(testInstance, filepath.Join(checkoutPath, "ui"), "rev-parse", "origin/main")
	require.Equal(testInstance, upstreamHead, fetchedHead)
}
