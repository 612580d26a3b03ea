package commands

import (
	"github.com/mosaicnetworks/murmur/src/config"
)

var _config = NewDefaultCLIConfig()

// CLIConfig contains configuration for the root command
type CLIConfig struct {
	Murmur config.Config `mapstructure:",squash"`
}

// NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Murmur: *config.NewDefaultConfig(),
	}
}
