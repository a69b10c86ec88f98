// Package config provides configuration infrastructure and Fx modules.
package config

import (
	"go.uber.org/fx"
)

// Path is the location of the YAML configuration file.
type Path string

// Module loads *Config from the supplied Path.
var Module = fx.Module("config",
	fx.Provide(func(p Path) (*Config, error) {
		return LoadConfig(string(p))
	}),
)
