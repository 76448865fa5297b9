// Package stats maintains sliding windows of sampled dashboard gauges
// (client counts, uplink throughput) for the web console's live charts.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/packetintransit/meraki/internal/logging"
)

// RingBuffer holds a fixed-size sliding window of data points.
type RingBuffer struct {
	values []float64
	next   int
	full   bool
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{values: make([]float64, size)}
}

// Add inserts a value, overwriting the oldest when full.
func (r *RingBuffer) Add(v float64) {
	r.values[r.next] = v
	r.next = (r.next + 1) % len(r.values)
	if r.next == 0 {
		r.full = true
	}
}

// Snapshot returns the window ordered oldest to newest.
func (r *RingBuffer) Snapshot() []float64 {
	out := make([]float64, 0, len(r.values))
	if r.full {
		out = append(out, r.values[r.next:]...)
	}
	return append(out, r.values[:r.next]...)
}

// Len returns the number of points currently held.
func (r *RingBuffer) Len() int {
	if r.full {
		return len(r.values)
	}
	return r.next
}

// Last returns the most recent value, or zero when empty.
func (r *RingBuffer) Last() float64 {
	if r.next == 0 {
		if !r.full {
			return 0
		}
		return r.values[len(r.values)-1]
	}
	return r.values[r.next-1]
}

// SampleFunc produces one round of gauge samples keyed by series name.
// Values are stored as-is; callers that sample windowed byte totals
// should divide by the window to report rates.
type SampleFunc func(ctx context.Context) (map[string]float64, error)

// Collector polls a sample function on an interval and keeps a sliding
// window per series.
type Collector struct {
	mu       sync.RWMutex
	series   map[string]*RingBuffer
	last     map[string]float64
	interval time.Duration
	capacity int
	sample   SampleFunc
	log      *logging.Logger
	stopCh   chan struct{}
	running  bool
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCapacity sets the window size in data points. Default 60.
func WithCapacity(n int) CollectorOption {
	return func(c *Collector) { c.capacity = n }
}

// WithLogger overrides the collector's logger.
func WithLogger(log *logging.Logger) CollectorOption {
	return func(c *Collector) { c.log = log }
}

// NewCollector creates a collector. The sample function may be nil if
// all data arrives through Record.
func NewCollector(interval time.Duration, sample SampleFunc, opts ...CollectorOption) *Collector {
	c := &Collector{
		series:   make(map[string]*RingBuffer),
		last:     make(map[string]float64),
		interval: interval,
		capacity: 60,
		sample:   sample,
		log:      logging.WithComponent("stats"),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins background polling. No-op without a sample function.
// A stopped collector may be started again.
func (c *Collector) Start() {
	c.mu.Lock()
	if c.running || c.sample == nil {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	ticker := time.NewTicker(c.interval)
	go func() {
		for {
			select {
			case <-stopCh:
				ticker.Stop()
				return
			case <-ticker.C:
				c.tick()
			}
		}
	}()
}

// Stop shuts down the polling goroutine.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stopCh := c.stopCh
	c.mu.Unlock()
	close(stopCh)
}

func (c *Collector) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	samples, err := c.sample(ctx)
	if err != nil {
		// Samples are best-effort; a failed poll leaves a gap, not an outage.
		c.log.Debug("sample failed", "error", err)
		return
	}
	c.Record(samples)
}

// Record stores one round of samples. Unseen series get a new window.
func (c *Collector) Record(samples map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, v := range samples {
		buf, ok := c.series[key]
		if !ok {
			buf = NewRingBuffer(c.capacity)
			c.series[key] = buf
		}
		buf.Add(v)
		c.last[key] = v
	}
}

// Series returns the window for one series, oldest to newest. Unknown
// series return an empty slice.
func (c *Collector) Series(key string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if buf, ok := c.series[key]; ok {
		return buf.Snapshot()
	}
	return []float64{}
}

// All returns the windows for every tracked series.
func (c *Collector) All() map[string][]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]float64, len(c.series))
	for key, buf := range c.series {
		out[key] = buf.Snapshot()
	}
	return out
}

// Last returns the most recent sample for a series.
func (c *Collector) Last(key string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last[key]
}

// Reset drops all collected samples.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = make(map[string]*RingBuffer)
	c.last = make(map[string]float64)
}
