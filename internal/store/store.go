// Package store adapts the location-history sink and discovered-beacon
// ledger (spec.md §6, "external collaborators") onto SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/beaconmesh/indoor-positioning-server/internal/model"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database connection and schema lifecycle.
type Store struct {
	db *sql.DB
}

// Open initializes the database connection, creating directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InitSchema ensures baseline tables exist.
func (s *Store) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS location_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			zone_name TEXT NOT NULL,
			target_destination TEXT,
			timestamp_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_location_logs_session_time ON location_logs(session_id, timestamp_ms);`,
		`CREATE TABLE IF NOT EXISTS discovered_beacons (
			scanner_id TEXT NOT NULL,
			beacon_mac TEXT NOT NULL,
			rssi INTEGER,
			tx_power INTEGER,
			last_seen_ms INTEGER NOT NULL,
			PRIMARY KEY (scanner_id, beacon_mac)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// DB exposes the underlying sql.DB for callers that need raw access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// InsertLocationLog appends a LocationLog entry (spec.md §5, emitted by
// SessionCoordinator after every successful location request).
func (s *Store) InsertLocationLog(ctx context.Context, l model.LocationLog) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}

	var target sql.NullString
	if l.TargetDestination != "" {
		target = sql.NullString{String: l.TargetDestination, Valid: true}
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO location_logs (session_id, x, y, zone_name, target_destination, timestamp_ms) VALUES (?, ?, ?, ?, ?, ?);`,
		l.SessionID, l.X, l.Y, l.ZoneName, target, l.TimestampMs,
	)
	if err != nil {
		return fmt.Errorf("insert location log: %w", err)
	}
	return nil
}

// RecentLocationLogs returns the most recent entries for a session,
// newest first.
func (s *Store) RecentLocationLogs(ctx context.Context, sessionID string, limit int) ([]model.LocationLog, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, x, y, zone_name, target_destination, timestamp_ms
		 FROM location_logs WHERE session_id = ? ORDER BY timestamp_ms DESC LIMIT ?;`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query location logs: %w", err)
	}
	defer rows.Close()

	var logs []model.LocationLog
	for rows.Next() {
		var l model.LocationLog
		var target sql.NullString
		if err := rows.Scan(&l.SessionID, &l.X, &l.Y, &l.ZoneName, &target, &l.TimestampMs); err != nil {
			return nil, fmt.Errorf("scan location log: %w", err)
		}
		l.TargetDestination = target.String
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location logs: %w", err)
	}
	return logs, nil
}

// DiscoveredBeacon is a beacon observed during a site-survey scan, not
// yet promoted into the reference MapRegistry.
type DiscoveredBeacon struct {
	ScannerID  string
	BeaconMAC  string
	RSSI       int
	TxPower    *int
	LastSeenMs int64
}

// UpsertDiscoveredBeacon records or refreshes a site-survey observation.
func (s *Store) UpsertDiscoveredBeacon(ctx context.Context, b DiscoveredBeacon) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}

	var txPower sql.NullInt64
	if b.TxPower != nil {
		txPower = sql.NullInt64{Int64: int64(*b.TxPower), Valid: true}
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO discovered_beacons (scanner_id, beacon_mac, rssi, tx_power, last_seen_ms)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(scanner_id, beacon_mac)
		 DO UPDATE SET rssi = excluded.rssi, tx_power = excluded.tx_power, last_seen_ms = excluded.last_seen_ms;`,
		b.ScannerID, b.BeaconMAC, b.RSSI, txPower, b.LastSeenMs,
	)
	if err != nil {
		return fmt.Errorf("upsert discovered beacon: %w", err)
	}
	return nil
}

// ListDiscoveredBeacons returns every beacon seen during site survey.
func (s *Store) ListDiscoveredBeacons(ctx context.Context) ([]DiscoveredBeacon, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT scanner_id, beacon_mac, rssi, tx_power, last_seen_ms FROM discovered_beacons ORDER BY last_seen_ms DESC;`)
	if err != nil {
		return nil, fmt.Errorf("query discovered beacons: %w", err)
	}
	defer rows.Close()

	var beacons []DiscoveredBeacon
	for rows.Next() {
		var b DiscoveredBeacon
		var txPower sql.NullInt64
		if err := rows.Scan(&b.ScannerID, &b.BeaconMAC, &b.RSSI, &txPower, &b.LastSeenMs); err != nil {
			return nil, fmt.Errorf("scan discovered beacon: %w", err)
		}
		if txPower.Valid {
			v := int(txPower.Int64)
			b.TxPower = &v
		}
		beacons = append(beacons, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discovered beacons: %w", err)
	}
	return beacons, nil
}
