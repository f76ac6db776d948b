package obs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLoggerWritesJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", slog.LevelInfo)
	log.Debug("hidden")
	log.Info("calendar resolved", "property_id", "prop-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "calendar resolved", line["msg"])
	assert.Equal(t, "prop-1", line["property_id"])
}
