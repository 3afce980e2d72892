package main

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/coffersTech/blflog/internal/export"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "decode a BLF file and write its events as text or NDJSON",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "text or json"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "only export events matching this canql query"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default stdout)"},
		},
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var out io.Writer = c.App.Writer
	name := c.String("out")
	if name != "" {
		f, err := os.Create(name)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer f.Close()
		out = f
	}
	zw, err := export.CompressWriter(out, name)
	if err != nil {
		return err
	}
	finished := false
	defer func() {
		if !finished {
			zw.Close()
		}
	}()

	w, err := export.NewWriter(cfg.Format, zw)
	if err != nil {
		return err
	}

	logger := sessionLogger(path)
	r, err := openReader(cfg, path, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	start := time.Now()
	n, err := export.Copy(w, r)
	if err != nil {
		return errors.Wrapf(err, "export %s", path)
	}
	finished = true
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "failed to finish output")
	}

	st := r.Stats()
	logger.WithFields(log.Fields{
		"events":     n,
		"containers": st.Containers,
		"skipped":    st.Skipped,
		"filtered":   st.Filtered,
		"truncated":  st.TruncatedBytes,
		"elapsed":    time.Since(start).Round(time.Millisecond),
	}).Info("export finished")
	return nil
}
