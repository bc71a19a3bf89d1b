package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/untranslatable/internal/infrastructure/server"
	"github.com/eslsoft/untranslatable/internal/usecase"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Logger *logrus.Logger
	Server *server.Server
	Words  usecase.WordUsecase
}
