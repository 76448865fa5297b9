// Package metrics exposes Prometheus instrumentation for the toolkit
// and a background collector that keeps estate-level gauges current.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/packetintransit/meraki/internal/logging"
)

// Overview is a point-in-time summary of the monitored estate. The web
// dashboard serves the cached copy so page loads never block on the
// dashboard API.
type Overview struct {
	Organizations   int            `json:"organizations"`
	Networks        int            `json:"networks"`
	Devices         int            `json:"devices"`
	DevicesByStatus map[string]int `json:"devicesByStatus,omitempty"`
	DevicesByModel  map[string]int `json:"devicesByModel,omitempty"`
	Clients         int            `json:"clients"`
	CollectedAt     time.Time      `json:"collectedAt"`
}

// OverviewSource produces estate overviews, typically by walking the
// dashboard API. Abstracted so tests can feed canned data.
type OverviewSource interface {
	FetchOverview(ctx context.Context) (*Overview, error)
}

// Collector polls an OverviewSource on an interval, refreshes the
// inventory gauges and caches the latest overview for the web API.
type Collector struct {
	source   OverviewSource
	logger   *logging.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}

	mu         sync.RWMutex
	running    bool
	lastUpdate time.Time
	overview   *Overview
}

// CollectorOption configures the Collector.
type CollectorOption func(*Collector)

// WithTimeout bounds a single poll. Default: one minute.
func WithTimeout(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.timeout = d
	}
}

// WithLogger sets the collector's logger.
func WithLogger(l *logging.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = l
	}
}

// NewCollector creates a collector that polls source every interval.
// It does not start polling until Start is called.
func NewCollector(source OverviewSource, interval time.Duration, opts ...CollectorOption) *Collector {
	c := &Collector{
		source:   source,
		logger:   logging.Default().WithComponent("collector"),
		interval: interval,
		timeout:  time.Minute,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins the background polling goroutine. The first poll runs
// immediately so the cache is warm before the first page load.
func (c *Collector) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	go func() {
		c.poll()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.poll()
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
	c.mu.Unlock()
	close(c.stopCh)
}

// Overview returns the most recent overview and when it was collected.
// Returns nil before the first successful poll.
func (c *Collector) Overview() (*Overview, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overview, c.lastUpdate
}

// Refresh polls the source immediately, outside the normal schedule.
func (c *Collector) Refresh(ctx context.Context) error {
	ov, err := c.source.FetchOverview(ctx)
	if err != nil {
		Get().CollectorRuns.WithLabelValues("error").Inc()
		return err
	}
	c.apply(ov)
	Get().CollectorRuns.WithLabelValues("success").Inc()
	return nil
}

func (c *Collector) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.Refresh(ctx); err != nil {
		// Polling is best-effort; the cached overview stays serveable.
		c.logger.Warn("overview poll failed", "error", err)
	}
}

// apply stores the overview and pushes it into the gauges.
func (c *Collector) apply(ov *Overview) {
	r := Get()
	r.OrganizationsTotal.Set(float64(ov.Organizations))
	r.NetworksTotal.Set(float64(ov.Networks))
	r.ClientsActive.Set(float64(ov.Clients))
	r.DevicesByStatus.Reset()
	for status, n := range ov.DevicesByStatus {
		r.DevicesByStatus.WithLabelValues(status).Set(float64(n))
	}

	c.mu.Lock()
	c.overview = ov
	c.lastUpdate = ov.CollectedAt
	c.mu.Unlock()
}
