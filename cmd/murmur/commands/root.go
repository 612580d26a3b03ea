package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/murmur/src/broadcast"
	"github.com/mosaicnetworks/murmur/src/config"
	"github.com/mosaicnetworks/murmur/src/net"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/mosaicnetworks/murmur/src/service"
	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/mosaicnetworks/murmur/src/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd is the root command for murmur. It runs a broadcast node on the
// standard input and output of the process.
var RootCmd = &cobra.Command{
	Use:     "murmur",
	Short:   "Gossip broadcast node speaking JSON lines on stdin/stdout",
	PreRunE: loadConfig,
	RunE:    runMurmur,
}

func init() {
	AddRunFlags(RootCmd)
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runMurmur(cmd *cobra.Command, args []string) error {
	conf := &_config.Murmur
	logger := conf.Logger()

	telemetry.SetBuildInfo(version.Version)

	bn := broadcast.NewNode(conf.BroadcastConfig())
	runtime := node.NewRuntime(conf.NodeConfig(), bn, net.NewStdioTransport())

	if !conf.NoService {
		serviceServer := service.NewService(conf.ServiceAddr,
			logger.WithField("component", "service"),
			runtime,
			bn)
		go serviceServer.Serve()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Relay SIGINT and SIGTERM as a cancellation of the runtime
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig).Info("Stopping")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := runtime.Run(ctx); err != nil && err != context.Canceled {
		logger.WithError(err).Error("Node stopped")
		return err
	}

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds flags to the root command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.Murmur.DataDir, "Directory searched for murmur.toml (.yaml, .json)")
	cmd.Flags().String("log", _config.Murmur.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.Murmur.LogFile, "Also write logs to this file")

	// Broadcast
	cmd.Flags().Duration("gossip-interval", _config.Murmur.GossipInterval, "Time between anti-entropy rounds")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.Murmur.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.Murmur.NoService, "Disable the HTTP service")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	found, err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// the logger is built here, once the log options are final
	logger := _config.Murmur.Logger()

	if found {
		logger.Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else {
		logger.Debugf("No config file found in: %s", _config.Murmur.DataDir)
	}

	logger.WithFields(logrus.Fields{
		"murmur.DataDir":        _config.Murmur.DataDir,
		"murmur.LogLevel":       _config.Murmur.LogLevel,
		"murmur.LogFile":        _config.Murmur.LogFile,
		"murmur.GossipInterval": _config.Murmur.GossipInterval,
		"murmur.NoService":      _config.Murmur.NoService,
		"murmur.ServiceAddr":    _config.Murmur.ServiceAddr,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper. It reports whether a config
// file was found.
func bindFlagsLoadViper(cmd *cobra.Command) (bool, error) {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return false, err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return false, err
	}

	// look for config file in [datadir]/murmur.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName) // name of config file (without extension)
	viper.AddConfigPath(_config.Murmur.DataDir)   // search root directory

	found := true
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return false, err
		}
		found = false
	}

	// second unmarshal to read from config file
	return found, viper.Unmarshal(_config)
}
