package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/magfield/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Log.OutputPaths = []string{filepath.Join(t.TempDir(), "magfield.log")}
	return cfg
}

func TestInitializeAppSeedsOneRandomConductor(t *testing.T) {
	app, err := InitializeApp(testConfig(t))
	require.NoError(t, err)

	conductors := app.Scene.Conductors()
	require.Len(t, conductors, 1)
	assert.LessOrEqual(t, conductors[0].Center.X, 1.0)
	assert.GreaterOrEqual(t, conductors[0].Center.X, -1.0)
	assert.Nil(t, app.SceneFile)
}

func TestInitializeAppLoadsSceneFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.ScenePath = filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(cfg.ScenePath, []byte(`
conductors:
  - {x: 0, y: 0, amperage: 100}
  - {x: 1, y: 0, amperage: -100, color: "#0000ff"}
camera: {x: 5, y: 5, zoom: 2}
`), 0o600))

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.SceneFile)
	assert.Len(t, app.Scene.Conductors(), 2)
}

func TestInitializeServer(t *testing.T) {
	srv, err := InitializeServer(testConfig(t))
	require.NoError(t, err)
	assert.False(t, srv.GetStats().Running)
	assert.Equal(t, 1, srv.GetStats().ConductorCount)
}

func TestInitializeRejectsBadLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "chatty"
	_, err := InitializeApp(cfg)
	assert.Error(t, err)
}
