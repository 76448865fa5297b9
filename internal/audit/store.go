// Package audit keeps a persistent record of every write the toolkit
// performs against the dashboard, so configuration changes can be traced
// after the fact.
package audit

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

// Common actions recorded by the toolkit. Callers may use their own
// strings for anything not listed here.
const (
	ActionShapingUpdate = "shaping.update"
	ActionAPIKeySet     = "api_key.set"
	ActionAPIKeyClear   = "api_key.clear"
)

// Event is a single audit log entry.
type Event struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	User      string         `json:"user"`
	Session   string         `json:"session,omitempty"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	Details   map[string]any `json:"details,omitempty"`
	Status    int            `json:"status"`
	IP        string         `json:"ip,omitempty"`
}

// Store persists audit events in SQLite.
type Store struct {
	mu            sync.RWMutex
	db            *sql.DB
	clk           clock.Clock
	retentionDays int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock substitutes the time source, for tests.
func WithClock(clk clock.Clock) StoreOption {
	return func(s *Store) { s.clk = clk }
}

// NewStore opens (creating if needed) the audit database at dbPath.
// Events older than retentionDays are removed by Prune; zero or
// negative means the 90-day default.
func NewStore(dbPath string, retentionDays int, opts ...StoreOption) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if retentionDays <= 0 {
		retentionDays = 90
	}

	s := &Store{
		db:            db,
		clk:           &clock.RealClock{},
		retentionDays: retentionDays,
	}
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
		CREATE TABLE IF NOT EXISTS audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			user TEXT NOT NULL,
			session TEXT,
			action TEXT NOT NULL,
			resource TEXT NOT NULL,
			details TEXT,
			status INTEGER DEFAULT 0,
			ip TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_events(action);
		CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_events(user);
	`)
	if err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Write persists an event. A zero Timestamp is filled with the current
// time in UTC.
func (s *Store) Write(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if evt.Timestamp.IsZero() {
		evt.Timestamp = s.clk.Now().UTC()
	}

	var detailsJSON []byte
	if evt.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(evt.Details)
		if err != nil {
			detailsJSON = []byte("{}")
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO audit_events (timestamp, user, session, action, resource, details, status, ip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, evt.Timestamp, evt.User, evt.Session, evt.Action, evt.Resource, string(detailsJSON), evt.Status, evt.IP)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Query returns events in [start, end], newest first, optionally
// filtered by action and user. limit <= 0 means no limit.
func (s *Store) Query(start, end time.Time, action, user string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, user, session, action, resource, details, status, ip
		FROM audit_events WHERE timestamp >= ? AND timestamp <= ?`
	args := []any{start, end}

	if action != "" {
		query += " AND action = ?"
		args = append(args, action)
	}
	if user != "" {
		query += " AND user = ?"
		args = append(args, user)
	}

	query += " ORDER BY timestamp DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Recent returns the newest events, for the web console's activity view.
func (s *Store) Recent(limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT id, timestamp, user, session, action, resource, details, status, ip
		FROM audit_events ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var evt Event
		var session, details, ip sql.NullString

		err := rows.Scan(&evt.ID, &evt.Timestamp, &evt.User, &session, &evt.Action,
			&evt.Resource, &details, &evt.Status, &ip)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		evt.Session = session.String
		evt.IP = ip.String
		if details.Valid && details.String != "" {
			json.Unmarshal([]byte(details.String), &evt.Details)
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// Prune removes events older than the retention window and reports how
// many were deleted.
func (s *Store) Prune() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clk.Now().UTC().AddDate(0, 0, -s.retentionDays)
	result, err := s.db.Exec("DELETE FROM audit_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the total number of stored events.
func (s *Store) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM audit_events").Scan(&count)
	return count, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
