package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/LavaJover/shvark-exchange-form/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.log")
	log, closeFn, err := New(config.LogConfig{LogLevel: "warn", LogFormat: "json", LogOutput: path})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept", "session_id", "abc")
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(raw, &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "abc", line["session_id"])
}

func TestNew_Errors(t *testing.T) {
	_, _, err := New(config.LogConfig{LogLevel: "loud"})
	assert.Error(t, err)

	_, _, err = New(config.LogConfig{LogFormat: "xml"})
	assert.Error(t, err)

	_, _, err = New(config.LogConfig{LogOutput: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestNew_Stdout(t *testing.T) {
	log, closeFn, err := New(config.LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NoError(t, closeFn())
}
