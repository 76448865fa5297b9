package scheduler

import "time"

// NewSnapshotTask builds the periodic usage-snapshot task. The function
// is expected to fetch current usage from the dashboard and record it in
// the history store. RunOnStart is set so a fresh daemon writes a data
// point right away instead of waiting a full interval.
func NewSnapshotTask(schedule Schedule, fn TaskFunc) *Task {
	return &Task{
		ID:          "usage-snapshot",
		Name:        "Usage Snapshot",
		Description: "Record per-network client usage totals into the history store",
		Schedule:    schedule,
		Func:        fn,
		Enabled:     true,
		RunOnStart:  true,
		Timeout:     5 * time.Minute,
	}
}

// NewAuditPruneTask builds the retention task that trims old audit and
// history rows.
func NewAuditPruneTask(schedule Schedule, fn TaskFunc) *Task {
	return &Task{
		ID:          "store-prune",
		Name:        "Store Prune",
		Description: "Delete audit and history rows past their retention window",
		Schedule:    schedule,
		Func:        fn,
		Enabled:     true,
		Timeout:     time.Minute,
	}
}
