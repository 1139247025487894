package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "warning": LevelWarn, "error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerWritesJSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Options{Level: LevelDebug, Encoding: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.With(String("component", "test")).Info("sampled",
		Int("width", 40),
		Float64("zoom", 1.5),
		Bool("cached", true))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	assert.Equal(t, "sampled", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, 40.0, entry["width"])
	assert.Equal(t, true, entry["cached"])
}

func TestSetLevelAffectsChildren(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Options{Level: LevelInfo, OutputPaths: []string{path}})
	require.NoError(t, err)
	child := logger.With(String("k", "v"))

	child.Debug("hidden")
	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, child.GetLevel())
	child.Debug("shown")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), "shown")
}

func TestLoggersAreIndependent(t *testing.T) {
	dir := t.TempDir()
	first, err := New(Options{Level: LevelInfo, OutputPaths: []string{filepath.Join(dir, "first.log")}})
	require.NoError(t, err)
	second, err := New(Options{Level: LevelInfo, OutputPaths: []string{filepath.Join(dir, "second.log")}})
	require.NoError(t, err)

	second.SetLevel(LevelError)
	assert.Equal(t, LevelInfo, first.GetLevel())

	first.Info("from first")
	second.Info("dropped")
	require.NoError(t, first.Sync())
	require.NoError(t, second.Sync())

	raw, err := os.ReadFile(filepath.Join(dir, "first.log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "from first")

	raw, err = os.ReadFile(filepath.Join(dir, "second.log"))
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(raw)))
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Error("ignored", Error(assert.AnError))
	assert.NotNil(t, l.With(String("a", "b")))
}

func TestLoggerWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotated.log")
	logger, err := New(Options{Level: LevelInfo, File: &FileOptions{Path: path, MaxSizeMB: 1}})
	require.NoError(t, err)

	logger.Warn("to file", String("where", "lumberjack"))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"where":"lumberjack"`)
}
