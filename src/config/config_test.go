package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDefaultConfig(t *testing.T) {
	conf := NewDefaultConfig()

	if conf.GossipInterval != DefaultGossipInterval {
		t.Fatalf("GossipInterval should be %v, not %v", DefaultGossipInterval, conf.GossipInterval)
	}
	if !conf.NoService {
		t.Fatal("service should be disabled by default")
	}

	bconf := conf.BroadcastConfig()
	if bconf.GossipInterval != conf.GossipInterval {
		t.Fatalf("broadcast GossipInterval should be %v, not %v", conf.GossipInterval, bconf.GossipInterval)
	}
	if bconf.Logger == nil {
		t.Fatal("broadcast config should have a logger")
	}
	if conf.NodeConfig().Logger == nil {
		t.Fatal("node config should have a logger")
	}
}

func TestConfigFile(t *testing.T) {
	conf := NewDefaultConfig()
	conf.DataDir = filepath.Join("a", "b")

	if exp := filepath.Join("a", "b", "murmur"); conf.ConfigFile() != exp {
		t.Fatalf("ConfigFile should be %s, not %s", exp, conf.ConfigFile())
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"panic":   logrus.PanicLevel,
		"unknown": logrus.DebugLevel,
	}
	for s, exp := range cases {
		if l := LogLevel(s); l != exp {
			t.Fatalf("LogLevel(%q) should be %v, not %v", s, exp, l)
		}
	}
}

func TestLoggerFileHook(t *testing.T) {
	dir, err := ioutil.TempDir("", "murmur-config")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	conf := NewDefaultConfig()
	conf.LogLevel = "info"
	conf.LogFile = filepath.Join(dir, "murmur.log")

	logger := conf.Logger()
	logger.Logger.Out = ioutil.Discard
	logger.WithField("node_id", "n1").Info("hello")

	data, err := ioutil.ReadFile(conf.LogFile)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(string(data), "hello") || !strings.Contains(string(data), "n1") {
		t.Fatalf("log file should contain the entry, got %q", data)
	}
}
