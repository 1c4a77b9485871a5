package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initBufferedLogger(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	previous, previousLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(previousLevel)
	})

	var buf bytes.Buffer
	InitLogger(LogOptions{ServiceName: "productar", Environment: "production", Level: level, Output: &buf})
	return &buf
}

func TestComponent_TagsEntries(t *testing.T) {
	buf := initBufferedLogger(t, "debug")

	Component("recognition").Warn().Int("target_index", 0).Msg("unknown target")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "recognition", entry["component"])
	assert.Equal(t, "productar", entry["service"])
	assert.Equal(t, "unknown target", entry["message"])
}

func TestComponentFromContext_WithoutSpan(t *testing.T) {
	buf := initBufferedLogger(t, "info")

	ComponentFromContext(context.Background(), "classifier").Info().Msg("ready")

	assert.Contains(t, buf.String(), `"component":"classifier"`)
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestInitLogger_Level(t *testing.T) {
	buf := initBufferedLogger(t, "warn")
	Component("scene").Info().Msg("hidden")
	assert.Empty(t, buf.String())

	buf = initBufferedLogger(t, "not-a-level")
	Component("scene").Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
