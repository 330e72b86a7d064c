//go:build wireinject

package app

import (
	"github.com/google/wire"

	"alphaloop/internal/config"
)

func buildAppWithWire(cfg *config.Config) (*App, error) {
	panic(wire.Build(
		provideAppBuilder,
		provideAppFromBuilder,
	))
}
