package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"Warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestSetupFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := Setup(Options{Level: "warn", Out: &buf, NoColor: true})
	require.NoError(t, err)
	defer closeFn()

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "poller").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "component=poller")
}

func TestSetupGraylog(t *testing.T) {
	var buf bytes.Buffer
	// UDP dial succeeds without a listener.
	logger, closeFn, err := Setup(Options{Level: "info", Out: &buf, Graylog: "127.0.0.1:12201", NoColor: true})
	require.NoError(t, err)
	logger.Info().Msg("to both")
	assert.Contains(t, buf.String(), "to both")
	assert.NoError(t, closeFn())
}

func TestSetupGraylogBadAddress(t *testing.T) {
	_, _, err := Setup(Options{Graylog: "not-an-address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graylog")
}
