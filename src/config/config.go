package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mosaicnetworks/murmur/src/broadcast"
	"github.com/mosaicnetworks/murmur/src/common"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// DefaultConfigName is the base name of the optional configuration file in
// the data directory.
const DefaultConfigName = "murmur"

// Default configuration values.
const (
	DefaultLogLevel       = "info"
	DefaultLogFile        = ""
	DefaultServiceAddr    = "127.0.0.1:8000"
	DefaultNoService      = true
	DefaultGossipInterval = broadcast.DefaultGossipInterval
)

// Config contains all the configuration properties of a murmur process.
type Config struct {
	// DataDir is the directory searched for a configuration file.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of every log entry. Logs always go
	// to stderr because stdout carries protocol messages.
	LogFile string `mapstructure:"log-file"`

	// GossipInterval is the period of the anti-entropy timer of the
	// broadcast node.
	GossipInterval time.Duration `mapstructure:"gossip-interval"`

	// NoService disables the HTTP service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP service exposing /stats and
	// /metrics.
	ServiceAddr string `mapstructure:"service-listen"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:        DefaultDataDir(),
		LogLevel:       DefaultLogLevel,
		LogFile:        DefaultLogFile,
		GossipInterval: DefaultGossipInterval,
		NoService:      DefaultNoService,
		ServiceAddr:    DefaultServiceAddr,
	}
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// Logger returns a formatted logrus Entry, with prefix set to "murmur". The
// underlying logger writes to stderr, and to LogFile when one is configured.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Out = os.Stderr
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				lfshook.PathMap{
					logrus.DebugLevel: c.LogFile,
					logrus.InfoLevel:  c.LogFile,
					logrus.WarnLevel:  c.LogFile,
					logrus.ErrorLevel: c.LogFile,
					logrus.FatalLevel: c.LogFile,
					logrus.PanicLevel: c.LogFile,
				},
				&logrus.JSONFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "murmur")
}

// NodeConfig returns the configuration of the dispatch runtime.
func (c *Config) NodeConfig() *node.Config {
	return &node.Config{
		Logger: c.Logger().WithField("component", "runtime"),
	}
}

// BroadcastConfig returns the configuration of the broadcast node.
func (c *Config) BroadcastConfig() *broadcast.Config {
	return &broadcast.Config{
		GossipInterval: c.GossipInterval,
		Logger:         c.Logger().WithField("component", "broadcast"),
	}
}

// ConfigFile returns the path of the configuration file without extension.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, DefaultConfigName)
}

// DefaultDataDir return the default directory name for murmur config based on
// the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Murmur")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Murmur")
		} else {
			return filepath.Join(home, ".murmur")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
