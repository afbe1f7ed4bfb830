package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "linkfinderd", false)
	log.Debug("hidden")
	log.Info("crawl finished")
	log.Sync()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "crawl finished")
	assert.Contains(t, buf.String(), "linkfinderd")
	assert.Contains(t, buf.String(), "INFO")
}

func TestNewWithWriterDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "linkclient", true)
	log.Debug("visible")
	log.Sync()

	assert.Contains(t, buf.String(), "visible")
}

func TestNewServiceWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewServiceWithWriter(&buf, "linkfinderd", false)
	log.Debug("hidden")
	log.Info("linkfinder started", zap.Int("workers", 4))
	log.Sync()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "linkfinderd", entry["logger"])
	assert.Equal(t, "linkfinder started", entry["message"])
	assert.Equal(t, float64(4), entry["workers"])
}

func TestNewServiceWithWriterDebugIsConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewServiceWithWriter(&buf, "linkfinderd", true)
	log.Debug("visible")
	log.Sync()

	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
