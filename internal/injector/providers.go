// Package injector wires configuration, logging, the scene and the server together.
package injector

import (
	"github.com/zeusync/magfield/internal/config"
	"github.com/zeusync/magfield/internal/core/events/bus"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/core/observability/log"
	"github.com/zeusync/magfield/internal/scene"
	"github.com/zeusync/magfield/internal/server"
)

// App is what the interactive and batch commands need.
type App struct {
	Config    *config.Config
	Logger    log.Log
	Scene     *scene.Scene
	SceneFile *config.SceneFile
}

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := log.Options{
		Level:       level,
		Encoding:    cfg.Log.Encoding,
		OutputPaths: cfg.Log.OutputPaths,
	}
	if cfg.Log.File != "" {
		opts.File = &log.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
	}
	return log.New(opts)
}

// ProvideSceneFile loads the configured scene file; no path yields nil.
func ProvideSceneFile(cfg *config.Config) (*config.SceneFile, error) {
	if cfg.ScenePath == "" {
		return nil, nil
	}
	return config.LoadScene(cfg.ScenePath)
}

func ProvideSceneOptions(cfg *config.Config) scene.Options {
	return scene.OptionsFromConfig(cfg)
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

// ProvideScene builds the shared scene and seeds it. Random seed conductors land in the
// region a fresh camera sees.
func ProvideScene(opts scene.Options, eventBus bus.EventBus, logger log.Log, file *config.SceneFile) (*scene.Scene, error) {
	sc, err := scene.New(opts, eventBus, logger)
	if err != nil {
		return nil, err
	}

	bounds, err := seedBounds(file)
	if err != nil {
		return nil, err
	}
	if err = sc.Seed(file, bounds); err != nil {
		return nil, err
	}

	logger.Info("Scene ready", log.Int("conductors", len(sc.Conductors())))
	return sc, nil
}

func ProvideServerConfig(cfg *config.Config) server.Config {
	return server.ConfigFrom(cfg)
}

func seedBounds(file *config.SceneFile) (geometry.Rectangle, error) {
	center, half := geometry.Origin, 1.0
	if file != nil && file.Camera != nil {
		center, half = file.Camera.Center(), 1/file.Camera.Zoom
	}
	return geometry.RectangleFromCenterAndSize(center, 2*half, 2*half)
}
