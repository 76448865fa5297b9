package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNewSnapshotTask(t *testing.T) {
	called := false
	task := NewSnapshotTask(Every(time.Hour), func(ctx context.Context) error {
		called = true
		return nil
	})

	if task.ID != "usage-snapshot" {
		t.Errorf("Expected ID usage-snapshot, got %s", task.ID)
	}
	if !task.RunOnStart {
		t.Error("Snapshot task should run on start")
	}
	if !task.Enabled {
		t.Error("Snapshot task should be enabled")
	}
	if task.Timeout != 5*time.Minute {
		t.Errorf("Expected 5m timeout, got %v", task.Timeout)
	}

	if err := task.Func(context.Background()); err != nil {
		t.Fatalf("Task func failed: %v", err)
	}
	if !called {
		t.Error("Task func was not invoked")
	}
}

func TestNewAuditPruneTask(t *testing.T) {
	task := NewAuditPruneTask(Daily(3, 0), func(ctx context.Context) error {
		return nil
	})

	if task.ID != "store-prune" {
		t.Errorf("Expected ID store-prune, got %s", task.ID)
	}
	if task.RunOnStart {
		t.Error("Prune task should not run on start")
	}
	if task.Schedule == nil {
		t.Fatal("Prune task has no schedule")
	}

	// Daily(3, 0) from 10:00 lands on tomorrow 03:00
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	next := task.Schedule.Next(now)
	want := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}
}
