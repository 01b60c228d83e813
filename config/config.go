/*
Package config holds the configuration of a livedoc server.

Configuration is read from an optional YAML file and from environment
variables with prefix LIVEDOC_ (LIVEDOC_SERVER_ADDRESS overrides
server.address). A Config implements schuko.Configuration, so it may be
used to configure tracing:

	server:
	  address: ":8008"
	forward:
	  timeout: 10s
	  parallel: 8
	tracing:
	  adapter: go
	tracelevel:
	  root: Info
	  livedoc:
	    document: Debug

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/npillmayer/schuko"
	"github.com/spf13/viper"
)

// Config is a set of configuration values.
type Config struct {
	v *viper.Viper
}

var _ schuko.Configuration = (*Config)(nil)

// Load reads configuration from file and environment. If file is empty,
// a file "config.yaml" is searched for in $HOME/.config/livedoc and in the
// current directory; it is not an error if none is found.
func Load(file string) (*Config, error) {
	c := &Config{v: viper.New()}
	c.InitDefaults()
	c.v.SetConfigType("yaml")
	if file != "" {
		c.v.SetConfigFile(file)
	} else {
		c.v.SetConfigName("config")
		c.v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "livedoc"))
		c.v.AddConfigPath(".")
	}
	c.v.SetEnvPrefix("LIVEDOC")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return c, nil
}

// InitDefaults sets default values for all known keys.
func (c *Config) InitDefaults() {
	c.v.SetDefault("server.address", ":8008")
	c.v.SetDefault("forward.timeout", "10s")
	c.v.SetDefault("forward.parallel", 8)
	c.v.SetDefault("tracing.adapter", "go")
	c.v.SetDefault("tracelevel.root", "Info")
}

// Set overrides a configuration value.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// IsSet is a predicate: is key set?
func (c *Config) IsSet(key string) bool { return c.v.IsSet(key) }

// GetString returns the value of key as a string.
func (c *Config) GetString(key string) string { return c.v.GetString(key) }

// GetInt returns the value of key as an integer.
func (c *Config) GetInt(key string) int { return c.v.GetInt(key) }

// GetBool returns the value of key as a boolean.
func (c *Config) GetBool(key string) bool { return c.v.GetBool(key) }

// IsInteractive is always false, a livedoc server is not interactive.
func (c *Config) IsInteractive() bool { return false }

// ServerAddress is the address the HTTP server listens on.
func (c *Config) ServerAddress() string {
	return c.v.GetString("server.address")
}

// ForwardTimeout is the timeout for delivering a batch to a follower.
func (c *Config) ForwardTimeout() time.Duration {
	if d := c.v.GetDuration("forward.timeout"); d > 0 {
		return d
	}
	return 10 * time.Second
}

// ForwardParallel limits concurrent deliveries of a batch.
func (c *Config) ForwardParallel() int {
	if n := c.v.GetInt("forward.parallel"); n > 0 {
		return n
	}
	return 1
}
