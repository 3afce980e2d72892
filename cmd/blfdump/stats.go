package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/coffersTech/blflog/internal/blf"
	"github.com/coffersTech/blflog/internal/export"
	"github.com/coffersTech/blflog/internal/model"
	"github.com/coffersTech/blflog/internal/pkg/canql"
	"github.com/coffersTech/blflog/internal/stats"
)

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "summarize a BLF file (or an NDJSON export) per channel, id and time",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "only count events matching this canql query"},
			&cli.DurationFlag{Name: "interval", Usage: "histogram bucket width, 0 disables"},
			&cli.IntFlag{Name: "top", Usage: "number of arbitration ids to list"},
			&cli.StringFlag{Name: "textfile", Usage: "also write Prometheus metrics to this file"},
		},
		Action: runStats,
	}
}

type eventSource interface {
	Next() bool
	Event() model.Event
	Err() error
}

func runStats(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := sessionLogger(path)

	var (
		src      eventSource
		readerSt func() blf.Stats
	)
	if isJSONExport(path) {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "failed to open file")
		}
		defer f.Close()
		zr, err := export.DecompressReader(f, path)
		if err != nil {
			return err
		}
		defer zr.Close()
		query, err := cfg.ParsedQuery()
		if err != nil {
			return err
		}
		src = filtered(export.NewJSONReader(zr), query)
		readerSt = func() blf.Stats { return blf.Stats{} }
	} else {
		r, err := openReader(cfg, path, logger)
		if err != nil {
			return err
		}
		defer r.Close()
		src = r
		readerSt = r.Stats
	}

	col := stats.NewCollector(cfg.HistogramInterval)
	for src.Next() {
		ev := src.Event()
		col.Observe(&ev)
	}
	if err := src.Err(); err != nil {
		return errors.Wrapf(err, "stats %s", path)
	}

	summary := col.Summary(cfg.TopIDs)
	printSummary(c.App.Writer, summary, readerSt(), cfg.HistogramInterval)

	if cfg.MetricsTextfile != "" {
		m := stats.NewMetrics(prometheus.Labels{"file": filepath.Base(path)})
		m.Record(summary, readerSt())
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return errors.Wrap(err, "failed to write metrics textfile")
		}
		logger.WithField("textfile", cfg.MetricsTextfile).Info("metrics written")
	}
	return nil
}

// isJSONExport reports whether path is an NDJSON export, possibly zstd
// compressed, rather than a BLF capture.
func isJSONExport(path string) bool {
	switch export.BaseExt(path) {
	case ".ndjson", ".jsonl", ".json":
		return true
	}
	return false
}

// queryFilter applies the configured query to sources other than the BLF
// reader, which filters internally.
type queryFilter struct {
	eventSource
	query canql.Node
}

func filtered(src eventSource, query canql.Node) eventSource {
	if query == nil {
		return src
	}
	return &queryFilter{eventSource: src, query: query}
}

func (q *queryFilter) Next() bool {
	for q.eventSource.Next() {
		ev := q.eventSource.Event()
		if canql.Match(q.query, &ev) {
			return true
		}
	}
	return false
}

func printSummary(w io.Writer, s stats.Summary, rs blf.Stats, interval time.Duration) {
	fmt.Fprintf(w, "events:        %d (data %d, error %d)\n", s.Events, s.DataFrames, s.ErrorFrames)
	if s.Events > 0 {
		fmt.Fprintf(w, "first:         %.6f\n", s.First)
		fmt.Fprintf(w, "last:          %.6f\n", s.Last)
		fmt.Fprintf(w, "duration:      %v\n", s.Duration())
	}
	if rs.Objects > 0 {
		fmt.Fprintf(w, "objects:       %d top-level, %d containers, %d nested, %d skipped\n",
			rs.Objects, rs.Containers, rs.NestedObjects, rs.Skipped)
	}
	if rs.TruncatedBytes > 0 {
		fmt.Fprintf(w, "truncated:     %d bytes dropped at end of file\n", rs.TruncatedBytes)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(s.Channels) > 0 {
		fmt.Fprintln(tw, "\nCHANNEL\tDATA\tERROR")
		for _, cs := range s.Channels {
			fmt.Fprintf(tw, "%d\t%d\t%d\n", cs.Channel, cs.DataFrames, cs.ErrorFrames)
		}
	}
	if len(s.TopIDs) > 0 {
		fmt.Fprintln(tw, "\nID\tEXT\tCOUNT")
		for _, id := range s.TopIDs {
			fmt.Fprintf(tw, "%03x\t%v\t%d\n", id.ID, id.Extended, id.Count)
		}
	}
	if len(s.Histogram) > 0 {
		fmt.Fprintf(tw, "\nBUCKET (%v)\tCOUNT\n", interval)
		for _, p := range s.Histogram {
			fmt.Fprintf(tw, "%.3f\t%d\n", p.Time, p.Count)
		}
	}
	if err := tw.Flush(); err != nil {
		log.WithError(err).Warn("failed to write summary")
	}
}
