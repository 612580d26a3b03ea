package node

import (
	"testing"

	"github.com/mosaicnetworks/murmur/src/common"
	"github.com/sirupsen/logrus"
)

// Config contains the configuration of a Runtime.
type Config struct {
	Logger *logrus.Entry
}

// NewConfig creates a Config.
func NewConfig(logger *logrus.Entry) *Config {
	return &Config{
		Logger: logger,
	}
}

// DefaultConfig returns a Config with a debug logger writing to stderr.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		Logger: logger.WithField("component", "runtime"),
	}
}

// TestConfig returns a Config that logs through t.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t, common.TestLogLevel).WithField("component", "runtime")
	return config
}
