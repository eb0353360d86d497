// Package metrics exposes spill buffer activity as prometheus metrics.
//
// A Collector is shared by any number of buffers and registered once:
//
//	c := metrics.NewCollector("myapp")
//	prometheus.MustRegister(c)
//	buf, _ := spill.New(spill.WithMetrics(c))
//
// A nil *Collector is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const subsystem = "spill"

// Collector aggregates counters and gauges for spill buffers.
type Collector struct {
	spillEvents  prometheus.Counter
	spilledBytes prometheus.Counter
	writtenBytes prometheus.Counter
	memoryBytes  prometheus.Gauge
	openFiles    prometheus.Gauge
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector whose metrics live under namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		spillEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "Number of times a memory tail was persisted to a backing file",
		}),
		spilledBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "spilled_bytes_total",
			Help:      "Bytes written to backing files",
		}),
		writtenBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "written_bytes_total",
			Help:      "Bytes accepted by spill buffers",
		}),
		memoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "memory_bytes",
			Help:      "Capacity of in-memory buffers currently held",
		}),
		openFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "open_backing_files",
			Help:      "Number of open backing files",
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.spillEvents.Describe(ch)
	c.spilledBytes.Describe(ch)
	c.writtenBytes.Describe(ch)
	c.memoryBytes.Describe(ch)
	c.openFiles.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.spillEvents.Collect(ch)
	c.spilledBytes.Collect(ch)
	c.writtenBytes.Collect(ch)
	c.memoryBytes.Collect(ch)
	c.openFiles.Collect(ch)
}

// Spilled records one overflow that persisted n bytes.
func (c *Collector) Spilled(n int) {
	if c == nil {
		return
	}
	c.spillEvents.Inc()
	c.spilledBytes.Add(float64(n))
}

// DirectWrite records n bytes written straight to a backing file.
func (c *Collector) DirectWrite(n int) {
	if c == nil {
		return
	}
	c.spilledBytes.Add(float64(n))
}

// Written records n bytes accepted by a buffer.
func (c *Collector) Written(n int) {
	if c == nil {
		return
	}
	c.writtenBytes.Add(float64(n))
}

// MemoryChanged adjusts the held memory gauge by delta bytes.
func (c *Collector) MemoryChanged(delta int) {
	if c == nil || delta == 0 {
		return
	}
	c.memoryBytes.Add(float64(delta))
}

// FileOpened records a backing file being created.
func (c *Collector) FileOpened() {
	if c == nil {
		return
	}
	c.openFiles.Inc()
}

// FileClosed records a backing file being closed.
func (c *Collector) FileClosed() {
	if c == nil {
		return
	}
	c.openFiles.Dec()
}
