//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/untranslatable/internal/adapter/realtime"
	"github.com/eslsoft/untranslatable/internal/adapter/repository"
	"github.com/eslsoft/untranslatable/internal/adapter/rest"
	"github.com/eslsoft/untranslatable/internal/adapter/storage"
	"github.com/eslsoft/untranslatable/internal/infrastructure/config"
	"github.com/eslsoft/untranslatable/internal/infrastructure/server"
	"github.com/eslsoft/untranslatable/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
)

var repositorySet = wire.NewSet(
	repository.NewDocumentStore,
)

var adapterSet = wire.NewSet(
	realtime.NewHub,
	wire.Bind(new(usecase.Broadcaster), new(*realtime.Hub)),
	storage.NewCloudinaryStorage,
	wire.Bind(new(usecase.AudioStorage), new(*storage.CloudinaryStorage)),
)

var usecaseSet = wire.NewSet(
	usecase.NewWordUsecase,
	usecase.NewAudioUsecase,
)

var handlerSet = wire.NewSet(
	rest.NewWordHandler,
	rest.NewAudioHandler,
)

var serverSet = wire.NewSet(
	server.NewLogger,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		repositorySet,
		adapterSet,
		usecaseSet,
		handlerSet,
		serverSet,
		wire.Struct(new(Container), "Logger", "Server", "Words"),
	)
	return nil, nil, nil
}
