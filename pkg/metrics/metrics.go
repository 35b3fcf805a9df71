// Package metrics exposes pool and memory-monitor state as Prometheus
// metrics.
//
// # Overview
//
// Pools and monitors are not instrumented on the hot path. Instead, the
// collectors in this package read their counters at scrape time:
//
//   - PoolCollector reports pool.Stats for any number of pools
//   - MonitorCollector reports the latest memory reading
//
// Tiered pools are safe to read from the scrape goroutine directly. A Stack
// may only be read by its owning goroutine, so its owner publishes stats
// into a PublishedStats and the collector reads that instead.
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	pools := metrics.NewPoolCollector(tiered)
//	reg.MustRegister(pools, metrics.NewMonitorCollector(monitor))
//
//	// on the event loop
//	published := &metrics.PublishedStats{}
//	pools.Add(published)
//	published.Publish(stack.Stats())
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajitpratap0/hotpool/pkg/memory"
	"github.com/ajitpratap0/hotpool/pkg/pool"
)

// Namespace prefixes every metric name.
const Namespace = "hotpool"

// StatsSource yields a point-in-time pool.Stats.
type StatsSource interface {
	Stats() pool.Stats
}

// PublishedStats holds stats pushed by a pool's owning goroutine for other
// goroutines to read.
type PublishedStats struct {
	mu    sync.RWMutex
	stats pool.Stats
}

// Publish stores s.
func (p *PublishedStats) Publish(s pool.Stats) {
	p.mu.Lock()
	p.stats = s
	p.mu.Unlock()
}

// Stats returns the last published value.
func (p *PublishedStats) Stats() pool.Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// PoolCollector is a prometheus.Collector over a set of pools, labelled by
// pool name.
type PoolCollector struct {
	mu      sync.RWMutex
	sources []StatsSource

	size      *prometheus.Desc
	capacity  *prometheus.Desc
	allocated *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	exhausted *prometheus.Desc
	retained  *prometheus.Desc
	discarded *prometheus.Desc
}

// NewPoolCollector creates a collector reporting the given sources.
func NewPoolCollector(sources ...StatsSource) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(Namespace, "pool", name), help, []string{"pool"}, nil)
	}
	return &PoolCollector{
		sources:   sources,
		size:      desc("size", "Instances resident in the pool's free stores"),
		capacity:  desc("capacity", "Maximum resident instances, zero when unbounded"),
		allocated: desc("allocated_total", "Instances constructed by the factory"),
		hits:      desc("hits_total", "Gets served from a free store"),
		misses:    desc("misses_total", "Gets that found every free store empty"),
		exhausted: desc("exhausted_total", "Gets refused for lack of memory headroom"),
		retained:  desc("retained_total", "Releases kept for reuse"),
		discarded: desc("discarded_total", "Releases dropped for capacity or memory pressure"),
	}
}

// Add registers another source. A source reporting the same pool name as
// an existing one replaces it.
func (c *PoolCollector) Add(s StatsSource) {
	name := s.Stats().Name

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.sources {
		if existing.Stats().Name == name {
			c.sources[i] = s
			return
		}
	}
	c.sources = append(c.sources, s)
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.capacity
	ch <- c.allocated
	ch <- c.hits
	ch <- c.misses
	ch <- c.exhausted
	ch <- c.retained
	ch <- c.discarded
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	sources := append([]StatsSource(nil), c.sources...)
	c.mu.RUnlock()

	for _, src := range sources {
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size), s.Name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity), s.Name)
		ch <- prometheus.MustNewConstMetric(c.allocated, prometheus.CounterValue, float64(s.Allocated), s.Name)
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits), s.Name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), s.Name)
		ch <- prometheus.MustNewConstMetric(c.exhausted, prometheus.CounterValue, float64(s.Exhausted), s.Name)
		ch <- prometheus.MustNewConstMetric(c.retained, prometheus.CounterValue, float64(s.Retained), s.Name)
		ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue, float64(s.Discarded), s.Name)
	}
}

// MonitorSource is the read side of a memory monitor.
type MonitorSource interface {
	Snapshot() (memory.Snapshot, time.Time)
	Samples() uint64
	Failures() uint64
}

// MonitorCollector is a prometheus.Collector over one memory monitor.
type MonitorCollector struct {
	source MonitorSource

	used       *prometheus.Desc
	max        *prometheus.Desc
	available  *prometheus.Desc
	samples    *prometheus.Desc
	failures   *prometheus.Desc
	lastSample *prometheus.Desc
}

// NewMonitorCollector creates a collector for m.
func NewMonitorCollector(m MonitorSource) *MonitorCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(Namespace, "memory", name), help, nil, nil)
	}
	return &MonitorCollector{
		source:     m,
		used:       desc("used_bytes", "Bytes in use at the last sample"),
		max:        desc("max_bytes", "Maximum bytes at the last sample"),
		available:  desc("available_bytes", "Headroom in bytes at the last sample"),
		samples:    desc("samples_total", "Successful probe reads"),
		failures:   desc("probe_failures_total", "Failed probe reads"),
		lastSample: desc("last_sample_timestamp_seconds", "Unix time of the last successful sample"),
	}
}

// Describe implements prometheus.Collector.
func (c *MonitorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.used
	ch <- c.max
	ch <- c.available
	ch <- c.samples
	ch <- c.failures
	ch <- c.lastSample
}

// Collect implements prometheus.Collector.
func (c *MonitorCollector) Collect(ch chan<- prometheus.Metric) {
	snap, at := c.source.Snapshot()
	var ts float64
	if !at.IsZero() {
		ts = float64(at.UnixNano()) / 1e9
	}
	ch <- prometheus.MustNewConstMetric(c.used, prometheus.GaugeValue, float64(snap.UsedBytes))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(snap.MaxBytes))
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(snap.Available()))
	ch <- prometheus.MustNewConstMetric(c.samples, prometheus.CounterValue, float64(c.source.Samples()))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(c.source.Failures()))
	ch <- prometheus.MustNewConstMetric(c.lastSample, prometheus.GaugeValue, ts)
}

// Timer measures an operation's duration.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's label.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed time since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// LatencyTracker keeps the most recent latencies for percentile queries.
// Thread-safe for concurrent use.
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	head    int // next slot to overwrite once full
	maxSize int
}

// NewLatencyTracker creates a tracker holding up to maxSize values.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LatencyTracker{
		values:  make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds d, evicting the oldest value when full.
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) < l.maxSize {
		l.values = append(l.values, d)
		return
	}
	l.values[l.head] = d
	l.head = (l.head + 1) % l.maxSize
}

// Count returns the number of values held.
func (l *LatencyTracker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.values)
}

// Percentile returns the p-th percentile (0-100) by nearest rank, or 0 when
// empty.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := append([]time.Duration(nil), l.values...)
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p / 100)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
