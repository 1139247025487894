//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/magfield/internal/config"
	"github.com/zeusync/magfield/internal/core/observability/log"
	"github.com/zeusync/magfield/internal/server"
)

var loggerSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
)

var sceneSet = wire.NewSet(
	ProvideSceneFile,
	ProvideSceneOptions,
	ProvideEventBus,
	ProvideScene,
)

func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(loggerSet, sceneSet, wire.Struct(new(App), "*"))
	return nil, nil
}

func InitializeServer(cfg *config.Config) (*server.Server, error) {
	wire.Build(loggerSet, sceneSet, ProvideServerConfig, server.NewServer)
	return nil, nil
}
