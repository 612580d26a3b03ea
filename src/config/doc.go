// Package config defines the configuration of a murmur process.
//
// The command line, an optional configuration file, and library users all go
// through the Config object defined in this package. A murmur process has no
// persistent state. The data directory, Config.DataDir, is only searched for
// an optional configuration file:
//
//	murmur.toml // or murmur.yaml, murmur.json
package config
