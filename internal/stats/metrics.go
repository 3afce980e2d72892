package stats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/coffersTech/blflog/internal/blf"
)

// Metrics exposes a decode run as Prometheus metrics, intended for the
// node_exporter textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	Frames         *prometheus.CounterVec
	Objects        *prometheus.CounterVec
	TruncatedBytes prometheus.Gauge
	FirstTimestamp prometheus.Gauge
	LastTimestamp  prometheus.Gauge
}

// NewMetrics registers all metrics on a fresh registry. constLabels are
// attached to every series (e.g. the capture file name).
func NewMetrics(constLabels prometheus.Labels) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(constLabels, reg))

	return &Metrics{
		registry: reg,
		Frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blf_frames_total",
				Help: "Decoded bus frames by channel and kind",
			},
			[]string{"channel", "kind"}, // kind: data, error
		),
		Objects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blf_objects_total",
				Help: "Objects read from the file by disposition",
			},
			[]string{"disposition"}, // top_level, container, nested, skipped
		),
		TruncatedBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "blf_truncated_bytes",
			Help: "Bytes of an incomplete trailing object dropped at end of file",
		}),
		FirstTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "blf_first_timestamp_seconds",
			Help: "Timestamp of the first decoded event",
		}),
		LastTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "blf_last_timestamp_seconds",
			Help: "Timestamp of the last decoded event",
		}),
	}
}

// Record copies a summary and the reader counters into the metrics.
func (m *Metrics) Record(s Summary, rs blf.Stats) {
	for _, cs := range s.Channels {
		ch := strconv.Itoa(int(cs.Channel))
		m.Frames.WithLabelValues(ch, "data").Add(float64(cs.DataFrames))
		m.Frames.WithLabelValues(ch, "error").Add(float64(cs.ErrorFrames))
	}
	m.Objects.WithLabelValues("top_level").Add(float64(rs.Objects))
	m.Objects.WithLabelValues("container").Add(float64(rs.Containers))
	m.Objects.WithLabelValues("nested").Add(float64(rs.NestedObjects))
	m.Objects.WithLabelValues("skipped").Add(float64(rs.Skipped))
	m.TruncatedBytes.Set(float64(rs.TruncatedBytes))
	if s.Events > 0 {
		m.FirstTimestamp.Set(s.First)
		m.LastTimestamp.Set(s.Last)
	}
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile atomically writes all metrics in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
