package broadcast

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/murmur/src/common"
	"github.com/sirupsen/logrus"
)

// DefaultGossipInterval is the default period of the anti-entropy timer.
const DefaultGossipInterval = 300 * time.Millisecond

// Config contains the configuration of a broadcast Node.
type Config struct {
	// GossipInterval is the period at which the node sends each neighbour
	// the values it is not known to hold.
	GossipInterval time.Duration `mapstructure:"gossip-interval"`

	Logger *logrus.Entry
}

// DefaultConfig returns a Config with default values and a logger writing to
// stderr.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		GossipInterval: DefaultGossipInterval,
		Logger:         logger.WithField("component", "broadcast"),
	}
}

// TestConfig returns a Config that logs through t.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t, common.TestLogLevel).WithField("component", "broadcast")
	return config
}
