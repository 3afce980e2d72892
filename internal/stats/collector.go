package stats

import (
	"math"
	"sort"
	"time"

	"github.com/coffersTech/blflog/internal/model"
)

// ChannelStats holds per-channel frame counts.
type ChannelStats struct {
	Channel     uint16 `json:"channel"`
	DataFrames  int    `json:"data_frames"`
	ErrorFrames int    `json:"error_frames"`
}

// IDCount is the number of data frames seen for one arbitration id.
type IDCount struct {
	ID       uint32 `json:"id"`
	Extended bool   `json:"extended"`
	Count    int    `json:"count"`
}

type HistogramPoint struct {
	Time  float64 `json:"time"` // bucket start, epoch seconds
	Count int     `json:"count"`
}

// Summary is the aggregate view over a decoded stream.
type Summary struct {
	Events      int              `json:"events"`
	DataFrames  int              `json:"data_frames"`
	ErrorFrames int              `json:"error_frames"`
	First       float64          `json:"first"`
	Last        float64          `json:"last"`
	Channels    []ChannelStats   `json:"channels"`
	TopIDs      []IDCount        `json:"top_ids"`
	Histogram   []HistogramPoint `json:"histogram"`
}

// Duration returns the time span between the first and last event.
func (s Summary) Duration() time.Duration {
	if s.Events == 0 {
		return 0
	}
	return time.Duration((s.Last - s.First) * float64(time.Second))
}

type idKey struct {
	id       uint32
	extended bool
}

// Collector aggregates events as they are decoded. It is not safe for
// concurrent use.
type Collector struct {
	interval float64 // histogram bucket width in seconds, 0 disables

	events      int
	dataFrames  int
	errorFrames int
	first, last float64

	channels map[uint16]*ChannelStats
	ids      map[idKey]int
	buckets  map[int64]int
}

// NewCollector creates a Collector with the given histogram interval.
func NewCollector(interval time.Duration) *Collector {
	return &Collector{
		interval: interval.Seconds(),
		channels: make(map[uint16]*ChannelStats),
		ids:      make(map[idKey]int),
		buckets:  make(map[int64]int),
	}
}

// Observe adds one event.
func (c *Collector) Observe(ev *model.Event) {
	if c.events == 0 || ev.Timestamp < c.first {
		c.first = ev.Timestamp
	}
	if c.events == 0 || ev.Timestamp > c.last {
		c.last = ev.Timestamp
	}
	c.events++

	cs, ok := c.channels[ev.Channel]
	if !ok {
		cs = &ChannelStats{Channel: ev.Channel}
		c.channels[ev.Channel] = cs
	}
	if ev.IsErrorFrame {
		c.errorFrames++
		cs.ErrorFrames++
	} else {
		c.dataFrames++
		cs.DataFrames++
		c.ids[idKey{ev.ArbitrationID, ev.IsExtendedID}]++
	}

	if c.interval > 0 {
		bucket := int64(math.Floor(ev.Timestamp / c.interval))
		c.buckets[bucket]++
	}
}

// Summary returns the aggregate so far with at most top arbitration ids,
// most frequent first. top <= 0 returns all ids.
func (c *Collector) Summary(top int) Summary {
	s := Summary{
		Events:      c.events,
		DataFrames:  c.dataFrames,
		ErrorFrames: c.errorFrames,
		First:       c.first,
		Last:        c.last,
	}

	for _, cs := range c.channels {
		s.Channels = append(s.Channels, *cs)
	}
	sort.Slice(s.Channels, func(i, j int) bool {
		return s.Channels[i].Channel < s.Channels[j].Channel
	})

	for k, n := range c.ids {
		s.TopIDs = append(s.TopIDs, IDCount{ID: k.id, Extended: k.extended, Count: n})
	}
	sort.Slice(s.TopIDs, func(i, j int) bool {
		a, b := s.TopIDs[i], s.TopIDs[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return !a.Extended && b.Extended
	})
	if top > 0 && len(s.TopIDs) > top {
		s.TopIDs = s.TopIDs[:top]
	}

	for b, n := range c.buckets {
		s.Histogram = append(s.Histogram, HistogramPoint{Time: float64(b) * c.interval, Count: n})
	}
	sort.Slice(s.Histogram, func(i, j int) bool {
		return s.Histogram[i].Time < s.Histogram[j].Time
	})

	return s
}
