package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeSource returns canned overviews and counts the polls it serves.
type fakeSource struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSource) FetchOverview(ctx context.Context) (*Overview, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &Overview{
		Organizations:   2,
		Networks:        5,
		Devices:         12,
		DevicesByStatus: map[string]int{"online": 10, "offline": 2},
		Clients:         84,
		CollectedAt:     time.Now(),
	}, nil
}

func TestCollector_Refresh(t *testing.T) {
	src := &fakeSource{}
	c := NewCollector(src, time.Minute)

	// Before the first poll there is nothing to serve.
	ov, ts := c.Overview()
	if ov != nil || !ts.IsZero() {
		t.Error("expected empty cache before first poll")
	}

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	ov, ts = c.Overview()
	if ov == nil {
		t.Fatal("expected cached overview after refresh")
	}
	if ov.Devices != 12 {
		t.Errorf("Devices = %d, want 12", ov.Devices)
	}
	if ov.DevicesByStatus["online"] != 10 {
		t.Errorf("online devices = %d, want 10", ov.DevicesByStatus["online"])
	}
	if ts.IsZero() {
		t.Error("expected lastUpdate to be set")
	}
}

func TestCollector_RefreshError(t *testing.T) {
	src := &fakeSource{err: errors.New("dashboard unreachable")}
	c := NewCollector(src, time.Minute)

	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	// Failed polls must not clobber the cache.
	ov, _ := c.Overview()
	if ov != nil {
		t.Error("expected cache to stay empty after failed poll")
	}
}

func TestCollector_Lifecycle(t *testing.T) {
	src := &fakeSource{}
	c := NewCollector(src, 10*time.Millisecond)

	c.Start()
	// Start polls immediately, then on every tick.
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	if src.calls.Load() < 2 {
		t.Errorf("expected at least 2 polls, got %d", src.calls.Load())
	}

	// Stop again must not panic or double-close.
	c.Stop()

	ov, _ := c.Overview()
	if ov == nil {
		t.Fatal("expected cached overview after lifecycle run")
	}
}
