// Package storage persists sessions, sensor readings and event marks in
// SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/neurodash/internal/neuro"
)

// ErrSessionNotFound is returned by lookups of an unknown session id.
var ErrSessionNotFound = errors.New("storage: session not found")

type Store struct {
	db      *sql.DB
	session string
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time; the recorder goroutine is the only caller
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id                TEXT PRIMARY KEY,
			name              TEXT,
			started_ns        BIGINT,
			sensors           TEXT,
			params            TEXT,
			notes             TEXT
		);
		CREATE TABLE IF NOT EXISTS readings (
			session_id        TEXT,
			t_ns              BIGINT,
			sensor            TEXT,
			metric            TEXT,
			value             DOUBLE,
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		);
		CREATE INDEX IF NOT EXISTS readings_session_t ON readings(session_id, t_ns);
		CREATE TABLE IF NOT EXISTS events (
			session_id        TEXT,
			t_ns              BIGINT,
			label             TEXT,
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SessionMetadata describes one recording.
type SessionMetadata struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Started time.Time        `json:"started"`
	Sensors []neuro.SensorID `json:"sensors"`
	Params  []string         `json:"params"`
	Notes   string           `json:"notes"`
}

// CreateSession stores a session and makes it the target of Record.
func (s *Store) CreateSession(ctx context.Context, meta SessionMetadata) error {
	sensors, err := json.Marshal(meta.Sensors)
	if err != nil {
		return err
	}
	params, err := json.Marshal(meta.Params)
	if err != nil {
		return err
	}
	if meta.Name == "" {
		meta.Name = meta.Started.Format("20060102150405")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, started_ns, sensors, params, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Name, meta.Started.UnixNano(), string(sensors), string(params), meta.Notes)
	if err != nil {
		return fmt.Errorf("create session %s: %w", meta.ID, err)
	}
	s.session = meta.ID
	return nil
}

// Record writes every metric of snap at the given time. Missing metrics
// are stored as NULL. Snapshots without a session go to the session made
// by CreateSession.
func (s *Store) Record(ctx context.Context, at time.Time, snap neuro.Snapshot) error {
	session := snap.Session
	if session == "" {
		session = s.session
	}
	if session == "" {
		return fmt.Errorf("record: %w", ErrSessionNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO readings (session_id, t_ns, sensor, metric, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := at.UnixNano()
	for _, id := range snap.Sensors() {
		r, _ := snap.Reading(id)
		for metric, v := range r {
			var value sql.NullFloat64
			if !neuro.IsMissing(v) {
				value = sql.NullFloat64{Float64: v, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, session, ts, string(id), metric, value); err != nil {
				return fmt.Errorf("record %s/%s: %w", id, metric, err)
			}
		}
	}
	return tx.Commit()
}

// RecordEvent stores a labelled mark, such as a stimulus button press.
func (s *Store) RecordEvent(ctx context.Context, session string, at time.Time, label string) error {
	if session == "" {
		session = s.session
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (session_id, t_ns, label) VALUES (?, ?, ?)`,
		session, at.UnixNano(), label)
	return err
}

func (s *Store) UpdateNotes(ctx context.Context, session, notes string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET notes = ? WHERE id = ?`, notes, session)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, session)
	}
	return nil
}

// List returns all sessions, newest first.
func (s *Store) List(ctx context.Context) ([]SessionMetadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, started_ns, sensors, params, notes FROM sessions ORDER BY started_ns DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]SessionMetadata, 0)
	for rows.Next() {
		meta, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *meta)
	}
	return sessions, rows.Err()
}

// Load returns one session's metadata.
func (s *Store) Load(ctx context.Context, id string) (*SessionMetadata, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, started_ns, sensors, params, notes FROM sessions WHERE id = ?`, id)
	meta, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return meta, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*SessionMetadata, error) {
	var (
		meta            SessionMetadata
		startedNs       int64
		sensors, params string
		name, notes     sql.NullString
	)
	if err := sc.Scan(&meta.ID, &name, &startedNs, &sensors, &params, &notes); err != nil {
		return nil, err
	}
	meta.Name, meta.Notes = name.String, notes.String
	meta.Started = time.Unix(0, startedNs)
	if err := json.Unmarshal([]byte(sensors), &meta.Sensors); err != nil {
		return nil, fmt.Errorf("session %s sensors: %w", meta.ID, err)
	}
	if err := json.Unmarshal([]byte(params), &meta.Params); err != nil {
		return nil, fmt.Errorf("session %s params: %w", meta.ID, err)
	}
	return &meta, nil
}

// Sample is one recorded snapshot.
type Sample struct {
	At       time.Time
	Snapshot neuro.Snapshot
}

// Readings reassembles a session's snapshots in time order.
func (s *Store) Readings(ctx context.Context, session string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t_ns, sensor, metric, value FROM readings WHERE session_id = ? ORDER BY t_ns, rowid`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			ts             int64
			sensor, metric string
			value          sql.NullFloat64
		)
		if err := rows.Scan(&ts, &sensor, &metric, &value); err != nil {
			return nil, err
		}

		if n := len(samples); n == 0 || samples[n-1].At.UnixNano() != ts {
			samples = append(samples, Sample{At: time.Unix(0, ts), Snapshot: neuro.NewSnapshot(session)})
		}
		snap := &samples[len(samples)-1].Snapshot
		r, ok := snap.Readings[neuro.SensorID(sensor)]
		if !ok {
			r = make(neuro.Reading)
			snap.Set(neuro.SensorID(sensor), r)
		}
		if value.Valid {
			r[metric] = value.Float64
		} else {
			r[metric] = neuro.Missing
		}
	}
	return samples, rows.Err()
}

// Event is a labelled mark within a session.
type Event struct {
	At    time.Time
	Label string
}

func (s *Store) Events(ctx context.Context, session string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t_ns, label FROM events WHERE session_id = ? ORDER BY t_ns, rowid`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ts    int64
			label string
		)
		if err := rows.Scan(&ts, &label); err != nil {
			return nil, err
		}
		events = append(events, Event{At: time.Unix(0, ts), Label: label})
	}
	return events, rows.Err()
}
