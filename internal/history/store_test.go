package history

import (
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
)

func newTestStore(t *testing.T) (*Store, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	store, err := Open(":memory:", WithClock(clk))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, clk
}

func testSnapshot(networkID string) Snapshot {
	return Snapshot{
		Organization:    "Acme Corp",
		OrganizationID:  "123456",
		Network:         "Main Office",
		NetworkID:       networkID,
		TimespanSeconds: 3600,
		Clients:         42,
		SentBytes:       1048576,
		RecvBytes:       2097152,
		TotalBytes:      3145728,
	}
}

func TestStore_RecordAndLatest(t *testing.T) {
	store, clk := newTestStore(t)

	id, err := store.Record(testSnapshot("N_100"))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero snapshot ID")
	}

	snap, ok, err := store.Latest("N_100")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a snapshot")
	}
	if snap.Clients != 42 {
		t.Errorf("Expected 42 clients, got %d", snap.Clients)
	}
	if snap.TotalBytes != 3145728 {
		t.Errorf("Expected total 3145728, got %f", snap.TotalBytes)
	}
	if !snap.TakenAt.Equal(clk.Now().UTC()) {
		t.Errorf("Expected taken_at filled from clock, got %v", snap.TakenAt)
	}
}

func TestStore_LatestMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, ok, err := store.Latest("N_none")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if ok {
		t.Error("Expected no snapshot for unknown network")
	}
}

func TestStore_ByNetwork(t *testing.T) {
	store, clk := newTestStore(t)

	first := testSnapshot("N_100")
	first.Clients = 10
	store.Record(first)

	clk.Advance(time.Hour)
	second := testSnapshot("N_100")
	second.Clients = 20
	store.Record(second)

	clk.Advance(time.Hour)
	other := testSnapshot("N_200")
	store.Record(other)

	snaps, err := store.ByNetwork("N_100", time.Time{})
	if err != nil {
		t.Fatalf("ByNetwork failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snaps))
	}
	// Oldest first
	if snaps[0].Clients != 10 || snaps[1].Clients != 20 {
		t.Errorf("Expected [10 20] clients, got [%d %d]", snaps[0].Clients, snaps[1].Clients)
	}

	// since filter excludes the first snapshot
	snaps, err = store.ByNetwork("N_100", clk.Now().Add(-90*time.Minute))
	if err != nil {
		t.Fatalf("ByNetwork with since failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(snaps))
	}
	if snaps[0].Clients != 20 {
		t.Errorf("Expected the newer snapshot, got %d clients", snaps[0].Clients)
	}
}

func TestStore_Recent(t *testing.T) {
	store, clk := newTestStore(t)

	for i := 0; i < 3; i++ {
		snap := testSnapshot("N_100")
		snap.Clients = i
		store.Record(snap)
		clk.Advance(time.Minute)
	}

	snaps, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Clients != 2 {
		t.Errorf("Expected newest first, got %d clients", snaps[0].Clients)
	}
}

func TestStore_GetWithBreakdowns(t *testing.T) {
	store, _ := newTestStore(t)

	snap := testSnapshot("N_100")
	snap.ByOS = map[string]int{"Windows 11": 30, "macOS": 12}
	snap.BySSID = map[string]int{"Corp": 40, "Guest": 2}
	id, err := store.Record(snap)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, ok, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a snapshot")
	}
	if got.ByOS["Windows 11"] != 30 {
		t.Errorf("Expected 30 Windows 11 clients, got %d", got.ByOS["Windows 11"])
	}
	if got.BySSID["Guest"] != 2 {
		t.Errorf("Expected 2 Guest clients, got %d", got.BySSID["Guest"])
	}

	_, ok, err = store.Get(id + 100)
	if err != nil {
		t.Fatalf("Get missing failed: %v", err)
	}
	if ok {
		t.Error("Expected no snapshot for unknown ID")
	}
}

func TestStore_EmptyBreakdownsStayNil(t *testing.T) {
	store, _ := newTestStore(t)

	id, err := store.Record(testSnapshot("N_100"))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	got, _, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ByOS != nil || got.BySSID != nil {
		t.Errorf("Expected nil breakdowns, got %v / %v", got.ByOS, got.BySSID)
	}
}

func TestStore_Trend(t *testing.T) {
	store, clk := newTestStore(t)

	for i := 0; i < 3; i++ {
		snap := testSnapshot("N_100")
		snap.Clients = 10 + i
		snap.TotalBytes = float64(1000 * (i + 1))
		store.Record(snap)
		clk.Advance(time.Hour)
	}
	store.Record(testSnapshot("N_200"))

	points, err := store.Trend("N_100", time.Time{})
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(points))
	}
	// Oldest first
	if points[0].Clients != 10 || points[2].Clients != 12 {
		t.Errorf("Expected clients [10 .. 12], got [%d .. %d]", points[0].Clients, points[2].Clients)
	}
	if points[1].TotalBytes != 2000 {
		t.Errorf("Expected middle total 2000, got %f", points[1].TotalBytes)
	}

	points, err = store.Trend("N_100", clk.Now().Add(-90*time.Minute))
	if err != nil {
		t.Fatalf("Trend with since failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Expected 1 point after since, got %d", len(points))
	}
}

func TestStore_Prune(t *testing.T) {
	store, clk := newTestStore(t)

	store.Record(testSnapshot("N_100"))
	clk.Advance(48 * time.Hour)
	store.Record(testSnapshot("N_100"))

	deleted, err := store.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 pruned snapshot, got %d", deleted)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining snapshot, got %d", count)
	}
}
