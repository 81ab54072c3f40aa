package config_fx

import (
	"go.uber.org/fx"
	"rightmycv/pkg/config"
)

var Module = fx.Provide(config.Load)
