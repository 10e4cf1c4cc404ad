package configs

import (
	_ "embed"
)

// ConfigFile is the default config, printed with --init
//
//go:embed config.yaml
var ConfigFile string
