package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/magfield/internal/config"
	"github.com/zeusync/magfield/internal/injector"
)

func sampleApp(t *testing.T) *injector.App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Log.OutputPaths = []string{filepath.Join(dir, "magfield.log")}
	cfg.ScenePath = filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(cfg.ScenePath, []byte(`
conductors:
  - {x: 0, y: 0, amperage: 100, color: "#ff0000"}
camera: {x: 0, y: 0, zoom: 2}
`), 0o600))

	app, err := injector.InitializeApp(cfg)
	require.NoError(t, err)
	return app
}

func TestSampleThroughCamera(t *testing.T) {
	out, err := runSample(context.Background(), sampleApp(t), sampleOptions{format: formatJSON})
	require.NoError(t, err)

	require.NotNil(t, out.Camera)
	assert.Equal(t, 2.0, out.Camera.Zoom)
	assert.Equal(t, 20, out.Width)
	assert.Equal(t, 20, out.Height)
	assert.Len(t, out.Cells, 400)
	assert.Len(t, out.Conductors, 1)
}

func TestSampleUnitSquare(t *testing.T) {
	out, err := runSample(context.Background(), sampleApp(t), sampleOptions{unit: true, width: 2, height: 2})
	require.NoError(t, err)

	assert.Nil(t, out.Camera)
	require.Len(t, out.Cells, 4)
	// the conductor sits on the origin, which is the first unit-square cell
	assert.True(t, out.Cells[0].Singular)
	assert.Equal(t, 0.5, out.Cells[1].X)
}

func TestWriteSampleJSON(t *testing.T) {
	out, err := runSample(context.Background(), sampleApp(t), sampleOptions{unit: true, width: 2, height: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSample(&buf, out, formatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 2, decoded["width"])
	assert.NotContains(t, decoded, "camera")
}

func TestWriteSampleTable(t *testing.T) {
	out, err := runSample(context.Background(), sampleApp(t), sampleOptions{unit: true, width: 2, height: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSample(&buf, out, formatTable))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "|B|")
	assert.Contains(t, lines[1], "singular")
	// (0.5, 0) is half a unit from the origin: 2e-7*100/0.5
	assert.Contains(t, lines[2], "4.000e-5")
}
