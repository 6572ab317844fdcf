package shared_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/internal/shared"
)

func TestWriterReporterFormatsLines(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	reporter := shared.NewWriterReporter(outputBuffer)

	reporter.Printf("WORKSPACE READY: %s\n", "/tmp/TICKET-1")

	require.Equal(testInstance, "WORKSPACE READY: /tmp/TICKET-1\n", outputBuffer.String())
}

func TestNonInteractiveEnvironmentDisablesPrompts(testInstance *testing.T) {
	environment := shared.NonInteractiveEnvironment()
	require.Equal(testInstance, map[string]string{"GIT_TERMINAL_PROMPT": "0"}, environment)

	environment["EXTRA"] = "1"
	require.Len(testInstance, shared.NonInteractiveEnvironment(), 1)
}

func TestWithOptionalTimeout(testInstance *testing.T) {
	unboundedContext, cancelUnbounded := shared.WithOptionalTimeout(context.Background(), 0)
	defer cancelUnbounded()
	_, hasDeadline := unboundedContext.Deadline()
	require.False(testInstance, hasDeadline)

	boundedContext, cancelBounded := shared.WithOptionalTimeout(context.Background(), time.Minute)
	defer cancelBounded()
	_, hasDeadline = boundedContext.Deadline()
	require.True(testInstance, hasDeadline)
}
