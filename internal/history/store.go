// Package history stores periodic usage snapshots so network load can
// be compared across time. SQLite is the system of record; an optional
// InfluxDB sink mirrors snapshots for dashboarding.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/packetintransit/meraki/internal/clock"
)

// Snapshot is one point-in-time usage measurement for a network.
type Snapshot struct {
	ID              int64     `json:"id"`
	TakenAt         time.Time `json:"taken_at"`
	Organization    string    `json:"organization"`
	OrganizationID  string    `json:"organization_id"`
	Network         string    `json:"network"`
	NetworkID       string    `json:"network_id"`
	TimespanSeconds int       `json:"timespan_seconds"`
	Clients         int       `json:"clients"`
	SentBytes       float64   `json:"sent_bytes"`
	RecvBytes       float64   `json:"recv_bytes"`
	TotalBytes      float64   `json:"total_bytes"`

	// Client breakdowns at snapshot time, counted by OS description
	// and by SSID. Optional; stored as JSON.
	ByOS   map[string]int `json:"by_os,omitempty"`
	BySSID map[string]int `json:"by_ssid,omitempty"`
}

// TrendPoint is one sample on a network's usage trend line.
type TrendPoint struct {
	TakenAt    time.Time `json:"taken_at"`
	Clients    int       `json:"clients"`
	TotalBytes float64   `json:"total_bytes"`
}

// Store persists snapshots in SQLite.
type Store struct {
	mu  sync.RWMutex
	db  *sql.DB
	clk clock.Clock
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock substitutes the time source, for tests.
func WithClock(clk clock.Clock) StoreOption {
	return func(s *Store) { s.clk = clk }
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string, opts ...StoreOption) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	s := &Store{db: db, clk: &clock.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS usage_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at DATETIME NOT NULL,
			organization TEXT NOT NULL,
			organization_id TEXT NOT NULL,
			network TEXT NOT NULL,
			network_id TEXT NOT NULL,
			timespan_seconds INTEGER NOT NULL,
			clients INTEGER NOT NULL,
			sent_bytes REAL NOT NULL,
			recv_bytes REAL NOT NULL,
			total_bytes REAL NOT NULL,
			by_os TEXT,
			by_ssid TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_network ON usage_snapshots(network_id, taken_at);
		CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON usage_snapshots(taken_at);
	`)
	if err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record inserts a snapshot. A zero TakenAt is filled with the current
// time in UTC. The stored ID is returned.
func (s *Store) Record(snap Snapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.TakenAt.IsZero() {
		snap.TakenAt = s.clk.Now().UTC()
	}

	result, err := s.db.Exec(`
		INSERT INTO usage_snapshots
			(taken_at, organization, organization_id, network, network_id,
			 timespan_seconds, clients, sent_bytes, recv_bytes, total_bytes,
			 by_os, by_ssid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.TakenAt, snap.Organization, snap.OrganizationID, snap.Network, snap.NetworkID,
		snap.TimespanSeconds, snap.Clients, snap.SentBytes, snap.RecvBytes, snap.TotalBytes,
		marshalCounts(snap.ByOS), marshalCounts(snap.BySSID))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return result.LastInsertId()
}

// marshalCounts turns a breakdown map into its stored form. Empty maps
// store as NULL so old rows and empty rows look the same.
func marshalCounts(m map[string]int) any {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return string(b)
}

func unmarshalCounts(s sql.NullString) map[string]int {
	if !s.Valid || s.String == "" {
		return nil
	}
	var m map[string]int
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil
	}
	return m
}

// ByNetwork returns snapshots for a network taken at or after since,
// oldest first.
func (s *Store) ByNetwork(networkID string, since time.Time) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, taken_at, organization, organization_id, network, network_id,
		       timespan_seconds, clients, sent_bytes, recv_bytes, total_bytes,
		       by_os, by_ssid
		FROM usage_snapshots
		WHERE network_id = ? AND taken_at >= ?
		ORDER BY taken_at ASC
	`, networkID, since)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Recent returns the newest snapshots across all networks.
func (s *Store) Recent(limit int) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, taken_at, organization, organization_id, network, network_id,
		       timespan_seconds, clients, sent_bytes, recv_bytes, total_bytes,
		       by_os, by_ssid
		FROM usage_snapshots
		ORDER BY taken_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Latest returns the most recent snapshot for a network, if any.
func (s *Store) Latest(networkID string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, taken_at, organization, organization_id, network, network_id,
		       timespan_seconds, clients, sent_bytes, recv_bytes, total_bytes,
		       by_os, by_ssid
		FROM usage_snapshots
		WHERE network_id = ?
		ORDER BY taken_at DESC
		LIMIT 1
	`, networkID)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("query latest snapshot: %w", err)
	}
	return snap, true, nil
}

// Get returns the snapshot with the given ID, if it exists.
func (s *Store) Get(id int64) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, taken_at, organization, organization_id, network, network_id,
		       timespan_seconds, clients, sent_bytes, recv_bytes, total_bytes,
		       by_os, by_ssid
		FROM usage_snapshots
		WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("query snapshot %d: %w", id, err)
	}
	return snap, true, nil
}

// Trend returns the usage trend line for a network since the given
// time, oldest first. This is the cheap form of ByNetwork for charts
// that only need totals.
func (s *Store) Trend(networkID string, since time.Time) ([]TrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT taken_at, clients, total_bytes
		FROM usage_snapshots
		WHERE network_id = ? AND taken_at >= ?
		ORDER BY taken_at ASC
	`, networkID, since)
	if err != nil {
		return nil, fmt.Errorf("query trend: %w", err)
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.TakenAt, &p.Clients, &p.TotalBytes); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// NetworkRef identifies a network that has snapshots in the store.
type NetworkRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Networks lists the distinct networks present in the store, most
// recently snapshotted first. It lets callers resolve a network name
// without touching the dashboard.
func (s *Store) Networks() ([]NetworkRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT network_id, network
		FROM usage_snapshots
		GROUP BY network_id, network
		ORDER BY MAX(taken_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query networks: %w", err)
	}
	defer rows.Close()

	var refs []NetworkRef
	for rows.Next() {
		var ref NetworkRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan network: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		snap         Snapshot
		byOS, bySSID sql.NullString
	)
	err := row.Scan(&snap.ID, &snap.TakenAt, &snap.Organization, &snap.OrganizationID,
		&snap.Network, &snap.NetworkID, &snap.TimespanSeconds, &snap.Clients,
		&snap.SentBytes, &snap.RecvBytes, &snap.TotalBytes, &byOS, &bySSID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.ByOS = unmarshalCounts(byOS)
	snap.BySSID = unmarshalCounts(bySSID)
	return snap, nil
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Prune removes snapshots older than maxAge and reports how many were
// deleted.
func (s *Store) Prune(maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clk.Now().UTC().Add(-maxAge)
	result, err := s.db.Exec("DELETE FROM usage_snapshots WHERE taken_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the total number of stored snapshots.
func (s *Store) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM usage_snapshots").Scan(&count)
	return count, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
