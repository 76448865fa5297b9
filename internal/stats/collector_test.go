package stats

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRingBuffer_Add(t *testing.T) {
	buf := NewRingBuffer(5)

	for i := 0; i < 5; i++ {
		buf.Add(float64(i))
	}

	snapshot := buf.Snapshot()
	if len(snapshot) != 5 {
		t.Fatalf("Expected 5 items, got %d", len(snapshot))
	}
	for i, v := range snapshot {
		if v != float64(i) {
			t.Errorf("Expected %f at index %d, got %f", float64(i), i, v)
		}
	}
}

func TestRingBuffer_Wrap(t *testing.T) {
	buf := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		buf.Add(float64(i))
	}

	snapshot := buf.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(snapshot))
	}

	// Oldest to newest after wrap
	expected := []float64{2, 3, 4}
	for i, v := range snapshot {
		if v != expected[i] {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}
}

func TestRingBuffer_Len(t *testing.T) {
	buf := NewRingBuffer(5)

	if buf.Len() != 0 {
		t.Errorf("Expected length 0, got %d", buf.Len())
	}

	buf.Add(1.0)
	buf.Add(2.0)
	if buf.Len() != 2 {
		t.Errorf("Expected length 2, got %d", buf.Len())
	}

	for i := 0; i < 10; i++ {
		buf.Add(float64(i))
	}
	if buf.Len() != 5 {
		t.Errorf("Expected length 5 (capacity), got %d", buf.Len())
	}
}

func TestRingBuffer_Last(t *testing.T) {
	buf := NewRingBuffer(3)

	if buf.Last() != 0 {
		t.Errorf("Expected 0 for empty buffer, got %f", buf.Last())
	}

	buf.Add(7)
	if buf.Last() != 7 {
		t.Errorf("Expected 7, got %f", buf.Last())
	}

	// Wrap exactly to the start
	buf.Add(8)
	buf.Add(9)
	if buf.Last() != 9 {
		t.Errorf("Expected 9 after wrap, got %f", buf.Last())
	}
}

func TestCollector_Record(t *testing.T) {
	c := NewCollector(time.Second, nil, WithCapacity(10))

	c.Record(map[string]float64{SeriesClients: 12, SeriesSent: 2048})
	c.Record(map[string]float64{SeriesClients: 14, SeriesSent: 4096})

	clients := c.Series(SeriesClients)
	if len(clients) != 2 {
		t.Fatalf("Expected 2 data points, got %d", len(clients))
	}
	if clients[0] != 12 || clients[1] != 14 {
		t.Errorf("Expected [12 14], got %v", clients)
	}

	if c.Last(SeriesSent) != 4096 {
		t.Errorf("Expected last sent 4096, got %f", c.Last(SeriesSent))
	}
}

func TestCollector_UnknownSeries(t *testing.T) {
	c := NewCollector(time.Second, nil)

	s := c.Series("nope")
	if s == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(s) != 0 {
		t.Errorf("Expected 0 data points, got %d", len(s))
	}
}

func TestCollector_Tick(t *testing.T) {
	calls := 0
	sample := func(ctx context.Context) (map[string]float64, error) {
		calls++
		if calls == 1 {
			return map[string]float64{SeriesClients: 3}, nil
		}
		return map[string]float64{SeriesClients: 5}, nil
	}

	c := NewCollector(100*time.Millisecond, sample, WithCapacity(10))
	c.tick()
	c.tick()

	series := c.Series(SeriesClients)
	if len(series) != 2 {
		t.Fatalf("Expected 2 data points, got %d", len(series))
	}
	if series[0] != 3 || series[1] != 5 {
		t.Errorf("Expected [3 5], got %v", series)
	}
}

func TestCollector_SampleErrorSkipped(t *testing.T) {
	sample := func(ctx context.Context) (map[string]float64, error) {
		return nil, errors.New("dashboard unreachable")
	}

	c := NewCollector(100*time.Millisecond, sample)
	c.tick()

	if len(c.All()) != 0 {
		t.Errorf("Expected no series after failed sample, got %d", len(c.All()))
	}
}

func TestCollector_All(t *testing.T) {
	c := NewCollector(time.Second, nil, WithCapacity(5))

	c.Record(map[string]float64{SeriesSent: 100, SeriesRecv: 200})
	c.Record(map[string]float64{SeriesSent: 150, SeriesRecv: 300})

	all := c.All()
	if len(all) != 2 {
		t.Errorf("Expected 2 series, got %d", len(all))
	}
	if len(all[SeriesSent]) != 2 {
		t.Errorf("Expected 2 sent points, got %d", len(all[SeriesSent]))
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector(time.Second, nil)
	c.Record(map[string]float64{SeriesClients: 1})

	c.Reset()

	if len(c.All()) != 0 {
		t.Errorf("Expected 0 series after reset, got %d", len(c.All()))
	}
	if c.Last(SeriesClients) != 0 {
		t.Errorf("Expected last value cleared, got %f", c.Last(SeriesClients))
	}
}

func TestCollector_StartStop(t *testing.T) {
	done := make(chan struct{})
	var once bool
	sample := func(ctx context.Context) (map[string]float64, error) {
		if !once {
			once = true
			close(done)
		}
		return map[string]float64{SeriesClients: 1}, nil
	}

	c := NewCollector(10*time.Millisecond, sample)
	c.Start()
	defer c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for first poll")
	}
}

func TestCollector_Restart(t *testing.T) {
	polls := make(chan struct{}, 16)
	sample := func(ctx context.Context) (map[string]float64, error) {
		select {
		case polls <- struct{}{}:
		default:
		}
		return map[string]float64{SeriesClients: 1}, nil
	}

	c := NewCollector(10*time.Millisecond, sample)

	c.Start()
	select {
	case <-polls:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for first poll")
	}
	c.Stop()

	// Drain whatever landed before Stop took effect.
	for {
		select {
		case <-polls:
			continue
		default:
		}
		break
	}

	c.Start()
	defer c.Stop()
	select {
	case <-polls:
	case <-time.After(time.Second):
		t.Fatal("Collector did not poll again after restart")
	}
}
