package ratelimit

import (
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
)

func newTestLimiter(limit int, interval time.Duration) (*Limiter, *clock.MockClock) {
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	return New(limit, interval, WithClock(clk)), clk
}

func TestAllow_Budget(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request over budget should be denied")
	}
}

func TestAllow_RefillAfterInterval(t *testing.T) {
	l, clk := newTestLimiter(2, time.Minute)

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.1")
	if l.Allow("10.0.0.1") {
		t.Fatal("expected denial before refill")
	}

	clk.Advance(time.Minute)
	if !l.Allow("10.0.0.1") {
		t.Error("expected allowance after interval elapsed")
	}
}

func TestAllow_KeysIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	if !l.Allow("10.0.0.1") {
		t.Fatal("first key should be allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second key should have its own bucket")
	}
	if l.Allow("10.0.0.1") {
		t.Error("first key should be exhausted")
	}
}

func TestAllowN(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)

	if !l.AllowN("k", 4) {
		t.Fatal("4 of 5 should be allowed")
	}
	if l.AllowN("k", 2) {
		t.Error("2 more should not fit")
	}
	if !l.AllowN("k", 1) {
		t.Error("the last token should still be available")
	}
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected exhaustion")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("expected fresh bucket after reset")
	}
}

func TestPrune(t *testing.T) {
	l, clk := newTestLimiter(1, time.Minute)

	l.Allow("old")
	clk.Advance(2 * time.Hour)
	l.Allow("fresh")
	l.Prune(time.Hour)

	if l.Len() != 1 {
		t.Errorf("expected 1 bucket after prune, got %d", l.Len())
	}
	// pruned key starts over
	if !l.Allow("old") {
		t.Error("expected pruned key to get a fresh bucket")
	}
}

func TestConcurrentAccess(t *testing.T) {
	l, _ := newTestLimiter(1000, time.Minute)
	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				l.Allow("shared")
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	if l.Allow("shared") {
		t.Error("expected exactly 1000 tokens consumed")
	}
}
