package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesAtLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Debug().Msg("hidden")
	log.Info().Msg("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestSubTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug").Sub("ingest")

	log.Warn().Str("agent_id", "docs").Msg("poll failed")

	output := buf.String()
	assert.Contains(t, output, `"component":"ingest"`)
	assert.Contains(t, output, `"agent_id":"docs"`)
}

func TestNopAndNilLoggerAreSafe(t *testing.T) {
	Nop().Error().Msg("discarded")

	var nilLogger *Logger
	nilLogger.Info().Msg("discarded")
	assert.NotNil(t, nilLogger.Sub("x"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{in: "debug", want: zerolog.DebugLevel},
		{in: " INFO ", want: zerolog.InfoLevel},
		{in: "warning", want: zerolog.WarnLevel},
		{in: "silent", want: zerolog.Disabled},
		{in: "bogus", want: zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}

	assert.True(t, ValidLevel("error"))
	assert.False(t, ValidLevel("loud"))
}
