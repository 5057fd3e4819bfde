//go:build unit || !integration

package logger

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoopHive/bacalhau/pkg/logger/testpackage/subpackage/subsubpackage"
)

func captureLogging(t *testing.T) *strings.Builder {
	oldLogger := log.Logger
	oldContextLogger := zerolog.DefaultContextLogger
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.DefaultContextLogger = oldContextLogger
	})

	var logging strings.Builder
	configureLogging(LogModeDefault, func(w *zerolog.ConsoleWriter) {
		w.Out = &logging
		w.NoColor = true
	})
	return &logging
}

func TestConfigureLogging(t *testing.T) {
	logging := captureLogging(t)

	subsubpackage.TestLog(context.Background(), "testing error logging", "testing message")

	actual := logging.String()
	t.Log(actual)

	assert.Contains(t, actual, "testing message", "Log statement doesn't contain the log message")
	assert.Contains(t, actual, `error="testing error logging"`, "Log statement doesn't contain the logged error")
	assert.Contains(t, actual, "subpackage/subsubpackage/testutil.go", "Log statement doesn't contain the shortened source path")
	assert.Contains(t, actual, `stack:[{"func":"TestLog","line":`, "Log statement didn't automatically include the error's stacktrace")
}

func TestContextWithJobIDLogger(t *testing.T) {
	logging := captureLogging(t)

	ctx := ContextWithJobIDLogger(context.Background(), "9304c616-291f-41ad-b862-54e133c0149e")
	log.Ctx(ctx).Info().Msg("loading job")

	actual := logging.String()
	assert.Contains(t, actual, "loading job")
	assert.Contains(t, actual, "[JobID:9304c616]")
	assert.NotContains(t, actual, "291f")
}

func TestParseLogMode(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected LogMode
	}{
		{"default", LogModeDefault},
		{"JSON", LogModeJSON},
		{" combined ", LogModeCombined},
		{"event", LogModeEvent},
	} {
		mode, err := ParseLogMode(tc.input)
		require.NoError(t, err)
		require.Equal(t, tc.expected, mode)
	}

	_, err := ParseLogMode("loud")
	require.Error(t, err)
}

func TestShortCaller(t *testing.T) {
	assert.Equal(t, "pkg/logger/logger.go", shortCaller("/home/dev/bacalhau/pkg/logger/logger.go"))
	assert.Equal(t, "main.go", shortCaller("main.go"))
}
