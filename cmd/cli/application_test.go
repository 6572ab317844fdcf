package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitfleet/internal/utils"
	"github.com/temirov/gitfleet/internal/workspace"
)

const testConfigurationContent = `
common:
  log_level: warn
bootstrap:
  workspace_root: /srv/workspaces
  primary_repository: cfs
  parallelism: 2
  clone_timeout: 2m
  repositories:
    - name: cfs
      remote_url: git@github.com:example/cfs.git
    - remote_url: https://github.com/example/core.git
drift:
  roots: [/fleet]
  format: json
`

type applicationHarness struct {
	application *Application
	output      *bytes.Buffer
	errorOutput *bytes.Buffer
	logOutput   *bytes.Buffer
}

func newApplicationHarness(testInstance *testing.T, arguments ...string) applicationHarness {
	testInstance.Helper()
	testInstance.Setenv("HOME", testInstance.TempDir())
	testInstance.Setenv("XDG_CONFIG_HOME", testInstance.TempDir())

	harness := applicationHarness{
		application: NewApplication(),
		output:      &bytes.Buffer{},
		errorOutput: &bytes.Buffer{},
		logOutput:   &bytes.Buffer{},
	}
	harness.application.loggerFactory = utils.NewLoggerFactoryWithOutput(harness.logOutput)
	harness.application.rootCommand.SetOut(harness.output)
	harness.application.rootCommand.SetErr(harness.errorOutput)
	harness.application.rootCommand.SetArgs(arguments)
	return harness
}

func writeTestConfiguration(testInstance *testing.T, content string) string {
	testInstance.Helper()
	configurationPath := filepath.Join(testInstance.TempDir(), "gitfleet.yaml")
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(content), 0o600))
	return configurationPath
}

func TestEmbeddedDefaultConfigurationDecodes(testInstance *testing.T) {
	configurationData, configurationType := EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)

	var rawConfiguration map[string]any
	require.NoError(testInstance, yaml.Unmarshal(configurationData, &rawConfiguration))

	var configuration ApplicationConfiguration
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &configuration,
	})
	require.NoError(testInstance, decoderError)
	require.NoError(testInstance, decoder.Decode(rawConfiguration))

	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
	require.Equal(testInstance, "~/workspaces", configuration.Bootstrap.WorkspaceRoot)
	require.Zero(testInstance, configuration.Bootstrap.CloneTimeout)
	require.Empty(testInstance, configuration.Bootstrap.Repositories)
	require.Equal(testInstance, []string{"."}, configuration.Drift.Roots)
	require.Equal(testInstance, "text", configuration.Drift.Format)
	require.Equal(testInstance, 4, configuration.Drift.FetchParallelism)
}

func TestEmbeddedDefaultConfigurationReturnsCopy(testInstance *testing.T) {
	first, _ := EmbeddedDefaultConfiguration()
	first[0] = '#'
	second, _ := EmbeddedDefaultConfiguration()
	require.NotEqual(testInstance, first[0], second[0])
}

func TestApplicationLoadsConfigurationFile(testInstance *testing.T) {
	configurationPath := writeTestConfiguration(testInstance, testConfigurationContent)
	harness := newApplicationHarness(testInstance, "--config", configurationPath)

	require.NoError(testInstance, harness.application.Execute())

	configuration := harness.application.configuration
	require.Equal(testInstance, configurationPath, harness.application.configurationMetadata.ConfigFileUsed)
	require.Equal(testInstance, "warn", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
	require.Equal(testInstance, "/srv/workspaces", configuration.Bootstrap.WorkspaceRoot)
	require.Equal(testInstance, "cfs", configuration.Bootstrap.PrimaryRepository)
	require.Equal(testInstance, 2, configuration.Bootstrap.Parallelism)
	require.Equal(testInstance, 2*time.Minute, configuration.Bootstrap.CloneTimeout)
	require.Len(testInstance, configuration.Bootstrap.Repositories, 2)
	require.Equal(testInstance, "https://github.com/example/core.git", configuration.Bootstrap.Repositories[1].RemoteURL)
	require.Equal(testInstance, []string{"/fleet"}, configuration.Drift.Roots)
	require.Equal(testInstance, "json", configuration.Drift.Format)
	require.Equal(testInstance, 4, configuration.Drift.FetchParallelism)
	require.Contains(testInstance, harness.output.String(), "workspace-bootstrap")
	require.Contains(testInstance, harness.output.String(), "submodule-drift")
}

func TestApplicationEnvironmentOverridesConfiguration(testInstance *testing.T) {
	configurationPath := writeTestConfiguration(testInstance, testConfigurationContent)
	harness := newApplicationHarness(testInstance, "--config", configurationPath)
	testInstance.Setenv("GITFLEET_BOOTSTRAP_WORKSPACE_ROOT", "/var/tasks")
	testInstance.Setenv("GITFLEET_DRIFT_FETCH_PARALLELISM", "8")

	require.NoError(testInstance, harness.application.Execute())
	require.Equal(testInstance, "/var/tasks", harness.application.configuration.Bootstrap.WorkspaceRoot)
	require.Equal(testInstance, 8, harness.application.configuration.Drift.FetchParallelism)
}

func TestApplicationLoggingFlagsOverrideConfiguration(testInstance *testing.T) {
	configurationPath := writeTestConfiguration(testInstance, testConfigurationContent)
	harness := newApplicationHarness(testInstance, "--config", configurationPath, "--log-level", "DEBUG", "--log-format", "console")

	require.NoError(testInstance, harness.application.Execute())
	require.Equal(testInstance, "debug", harness.application.configuration.Common.LogLevel)
	require.True(testInstance, harness.application.humanReadableLoggingEnabled())
	require.Contains(testInstance, harness.logOutput.String(), "DEBUG\tconfiguration initialized")
}

func TestApplicationRejectsUnknownLogLevel(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "--log-level", "verbose")

	executionError := harness.application.Execute()
	require.ErrorContains(testInstance, executionError, "must be one of debug, info, warn, error")
}

func TestApplicationReportsMissingConfigurationFile(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "--config", filepath.Join(testInstance.TempDir(), "absent.yaml"))

	executionError := harness.application.Execute()
	require.ErrorContains(testInstance, executionError, "unable to load configuration")
}

func TestApplicationBootstrapRequiresTaskIdentifier(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "workspace-bootstrap")

	executionError := harness.application.Execute()
	require.ErrorIs(testInstance, executionError, workspace.ErrMissingArgument)
	require.EqualError(testInstance, executionError, "task identifier is required")
	require.Contains(testInstance, harness.errorOutput.String(), "workspace-bootstrap <task_id>")
}

func TestApplicationPrintsVersion(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "--version")

	require.NoError(testInstance, harness.application.Execute())
	require.Equal(testInstance, "gitfleet version dev\n", harness.output.String())
}
