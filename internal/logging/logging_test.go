package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(newLogger(&buf, "debug", false), "table")

	logger.Info().Int("column", 3).Msg("cell placed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "table", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "cell placed", entry["message"])
	assert.Equal(t, float64(3), entry["column"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "chatty", false)

	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
