package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/coffersTech/blflog/internal/export"
	"github.com/coffersTech/blflog/internal/pkg/canql"
)

// Config holds the settings shared by all blfdump commands.
type Config struct {
	// Location is the time zone the file start time is read in:
	// "Local", "UTC" or an IANA name such as "Europe/Berlin".
	Location          string        `yaml:"location"`
	Format            string        `yaml:"format"`
	Query             string        `yaml:"query"`
	HistogramInterval time.Duration `yaml:"histogram_interval"`
	TopIDs            int           `yaml:"top_ids"`
	MetricsTextfile   string        `yaml:"metrics_textfile"`
	LogLevel          string        `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Location:          "Local",
		Format:            export.FormatText,
		HistogramInterval: time.Second,
		TopIDs:            10,
		LogLevel:          "info",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks every field that can be checked without opening files.
func (c Config) Validate() error {
	if _, err := c.TimeLocation(); err != nil {
		return err
	}
	if _, err := c.ParsedQuery(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case export.FormatText, export.FormatJSON, "txt", "ndjson", "":
	default:
		return errors.Errorf("unknown format %q", c.Format)
	}
	if c.HistogramInterval < 0 {
		return errors.Errorf("histogram_interval must not be negative, got %v", c.HistogramInterval)
	}
	return nil
}

// TimeLocation resolves Location.
func (c Config) TimeLocation() (*time.Location, error) {
	switch strings.ToLower(c.Location) {
	case "", "local":
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid location %q", c.Location)
	}
	return loc, nil
}

// ParsedQuery parses Query; an empty query yields a nil node.
func (c Config) ParsedQuery() (canql.Node, error) {
	n, err := canql.Parse(c.Query)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid query %q", c.Query)
	}
	return n, nil
}

// Level parses LogLevel.
func (c Config) Level() (log.Level, error) {
	if c.LogLevel == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel, errors.Wrap(err, "invalid log_level")
	}
	return lvl, nil
}
