package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
)

func newTestStore(t *testing.T) (*Store, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"), 30, WithClock(clk))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, clk
}

func TestStore_WriteAndQuery(t *testing.T) {
	store, clk := newTestStore(t)

	evt := Event{
		User:     "admin",
		Session:  "sess-1",
		Action:   ActionShapingUpdate,
		Resource: "network/N_100",
		Details:  map[string]any{"rules": 3},
		Status:   200,
		IP:       "192.0.2.10",
	}
	if err := store.Write(evt); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	start := clk.Now().Add(-time.Hour)
	end := clk.Now().Add(time.Hour)
	events, err := store.Query(start, end, "", "", 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	got := events[0]
	if got.Action != ActionShapingUpdate {
		t.Errorf("Expected action %s, got %s", ActionShapingUpdate, got.Action)
	}
	if got.Resource != "network/N_100" {
		t.Errorf("Expected resource network/N_100, got %s", got.Resource)
	}
	if got.Status != 200 {
		t.Errorf("Expected status 200, got %d", got.Status)
	}
	if got.Details["rules"] != float64(3) {
		t.Errorf("Expected details rules=3, got %v", got.Details["rules"])
	}
	if !got.Timestamp.Equal(clk.Now().UTC()) {
		t.Errorf("Expected timestamp filled from clock, got %v", got.Timestamp)
	}
}

func TestStore_QueryFilters(t *testing.T) {
	store, clk := newTestStore(t)

	writes := []Event{
		{User: "alice", Action: ActionShapingUpdate, Resource: "network/N_1"},
		{User: "bob", Action: ActionShapingUpdate, Resource: "network/N_2"},
		{User: "alice", Action: ActionAPIKeySet, Resource: "session/s1"},
	}
	for _, evt := range writes {
		if err := store.Write(evt); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	start := clk.Now().Add(-time.Hour)
	end := clk.Now().Add(time.Hour)

	events, err := store.Query(start, end, ActionShapingUpdate, "", 0)
	if err != nil {
		t.Fatalf("Query by action failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("Expected 2 shaping events, got %d", len(events))
	}

	events, err = store.Query(start, end, "", "alice", 0)
	if err != nil {
		t.Fatalf("Query by user failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("Expected 2 alice events, got %d", len(events))
	}

	events, err = store.Query(start, end, ActionShapingUpdate, "alice", 0)
	if err != nil {
		t.Fatalf("Query by action+user failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("Expected 1 event, got %d", len(events))
	}

	events, err = store.Query(start, end, "", "", 2)
	if err != nil {
		t.Fatalf("Query with limit failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(events))
	}
}

func TestStore_QueryOrder(t *testing.T) {
	store, clk := newTestStore(t)

	store.Write(Event{User: "a", Action: "first", Resource: "r"})
	clk.Advance(time.Minute)
	store.Write(Event{User: "a", Action: "second", Resource: "r"})

	events, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Action != "second" {
		t.Errorf("Expected newest first, got %s", events[0].Action)
	}
}

func TestStore_Prune(t *testing.T) {
	store, clk := newTestStore(t)

	store.Write(Event{User: "a", Action: "old", Resource: "r"})
	clk.Advance(40 * 24 * time.Hour) // past the 30-day retention
	store.Write(Event{User: "a", Action: "new", Resource: "r"})

	deleted, err := store.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 pruned event, got %d", deleted)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining event, got %d", count)
	}
}

func TestStore_EmptyDetails(t *testing.T) {
	store, clk := newTestStore(t)

	if err := store.Write(Event{User: "a", Action: "x", Resource: "r"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	events, err := store.Query(clk.Now().Add(-time.Hour), clk.Now().Add(time.Hour), "", "", 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Details != nil {
		t.Errorf("Expected nil details, got %v", events[0].Details)
	}
}
