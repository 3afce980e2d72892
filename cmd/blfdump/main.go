package main

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/coffersTech/blflog/internal/blf"
	"github.com/coffersTech/blflog/internal/config"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "blfdump",
		Usage:     "decode CAN bus Binary Logging Files",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"BLFDUMP_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "panic, fatal, error, warn, info, debug or trace",
			},
			&cli.StringFlag{
				Name:  "tz",
				Usage: "time zone for the file start time (Local, UTC or IANA name)",
			},
		},
		Before: func(c *cli.Context) error {
			log.SetOutput(stderr)
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			return nil
		},
		Commands: []*cli.Command{
			exportCommand(),
			statsCommand(),
			headerCommand(),
		},
	}
}

// loadConfig merges the config file, if any, with command line flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("tz") {
		cfg.Location = c.String("tz")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("query") {
		cfg.Query = c.String("query")
	}
	if c.IsSet("interval") {
		cfg.HistogramInterval = c.Duration("interval")
	}
	if c.IsSet("top") {
		cfg.TopIDs = c.Int("top")
	}
	if c.IsSet("textfile") {
		cfg.MetricsTextfile = c.String("textfile")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	lvl, _ := cfg.Level()
	log.SetLevel(lvl)
	return cfg, nil
}

// fileArg returns the single positional file argument.
func fileArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("expected exactly one FILE argument")
	}
	return c.Args().First(), nil
}

// sessionLogger tags every log line of one decode run.
func sessionLogger(path string) *log.Entry {
	return log.WithFields(log.Fields{
		"session": uuid.NewString(),
		"file":    path,
	})
}

func openReader(cfg config.Config, path string, logger *log.Entry) (*blf.Reader, error) {
	loc, err := cfg.TimeLocation()
	if err != nil {
		return nil, err
	}
	query, err := cfg.ParsedQuery()
	if err != nil {
		return nil, err
	}
	return blf.Open(path, blf.Options{
		Location: loc,
		Logger:   logger,
		Query:    query,
	})
}
