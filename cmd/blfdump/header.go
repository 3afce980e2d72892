package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/coffersTech/blflog/internal/blf"
)

func headerCommand() *cli.Command {
	return &cli.Command{
		Name:      "header",
		Usage:     "print the file header of a BLF file",
		ArgsUsage: "FILE",
		Action:    runHeader,
	}
}

func runHeader(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	loc, err := cfg.TimeLocation()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	h, err := blf.ReadFileHeader(f)
	if err != nil {
		return errors.Wrap(err, path)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "application:   %d v%d.%d.%d\n", h.ApplicationID, h.ApplicationMajor, h.ApplicationMinor, h.ApplicationBuild)
	fmt.Fprintf(w, "log format:    %d.%d.%d.%d\n", h.LogMajor, h.LogMinor, h.LogBuild, h.LogPatch)
	fmt.Fprintf(w, "file size:     %d\n", h.FileSize)
	fmt.Fprintf(w, "uncompressed:  %d\n", h.UncompressedSize)
	fmt.Fprintf(w, "objects:       %d (read %d)\n", h.ObjectCount, h.ObjectCountRead)
	fmt.Fprintf(w, "start:         %s\n", formatSystemTime(h.StartTime, loc))
	fmt.Fprintf(w, "stop:          %s\n", formatSystemTime(h.StopTime, loc))
	fmt.Fprintf(w, "anchor:        %.3f\n", h.StartTime.Anchor(loc))
	return nil
}

func formatSystemTime(st blf.SystemTime, loc *time.Location) string {
	t := st.Time(loc)
	if t.IsZero() {
		return "invalid"
	}
	return t.Format("2006-01-02 15:04:05.000 MST")
}
