// Package config loads the runtime settings of the chocomine command from
// CHOCOMINE_* environment variables and the mining jobs of batch files.
package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

// Prefix of the environment variables read by Load.
const Prefix = "chocomine"

// Config holds the process wide settings.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Workers is the number of batch jobs mined concurrently (0: one per CPU).
	Workers int `envconfig:"WORKERS" default:"0"`

	// Search limits applied to every job that does not set its own.
	TimeLimit     time.Duration `envconfig:"TIME_LIMIT" default:"0s"`
	SolutionLimit int           `envconfig:"SOLUTION_LIMIT" default:"0"`
	NodeLimit     int           `envconfig:"NODE_LIMIT" default:"0"`

	// DatasetCache is the number of datasets kept in memory by batch runs.
	DatasetCache int `envconfig:"DATASET_CACHE" default:"8"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, errors.Wrap(err, "loading environment configuration")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the limits and logging settings.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errors.Errorf("config: negative worker count %d", c.Workers)
	}
	if c.TimeLimit < 0 || c.SolutionLimit < 0 || c.NodeLimit < 0 {
		return errors.New("config: negative search limit")
	}
	if c.DatasetCache <= 0 {
		return errors.Errorf("config: dataset cache size must be positive, got %d", c.DatasetCache)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "config")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}

// Logger builds the logger described by c, writing to stderr.
func (c *Config) Logger() *log.Logger {
	l := log.New()
	l.SetOutput(os.Stderr)
	if lvl, err := log.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return l
}

// SearchOptions returns the solver options of the limits.
func (c *Config) SearchOptions() []cp.Option {
	return []cp.Option{
		cp.WithTimeLimit(c.TimeLimit),
		cp.WithSolutionLimit(c.SolutionLimit),
		cp.WithNodeLimit(c.NodeLimit),
	}
}
