// Package ledger provides an append-only history of settings applied to the
// display. One-shot commands and the flux loop both record here.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/flux"
)

// Kind represents what produced an entry
type Kind string

const (
	KindReset       Kind = "reset"
	KindSet         Kind = "set"
	KindShift       Kind = "shift"
	KindFluxStarted Kind = "flux_started"
	KindFluxReached Kind = "flux_reached"
)

// AllScreens marks an entry that covered every selected screen.
const AllScreens = -1

// Entry represents a single applied setting
type Entry struct {
	ID          int64
	RunID       string
	Kind        Kind
	Screen      int // AllScreens when the setting covered every selected screen
	Temperature int
	Brightness  float64
	Target      int    // Flux entries only
	Phase       string // Flux entries only
	Timestamp   time.Time
}

// Ledger provides append-only setting history
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Append adds a new entry. A zero Timestamp is replaced with the current time.
func (l *Ledger) Append(e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}

	var target sql.NullInt64
	var phase sql.NullString
	if e.Phase != "" {
		target = sql.NullInt64{Int64: int64(e.Target), Valid: true}
		phase = sql.NullString{String: e.Phase, Valid: true}
	}

	_, err := l.db.Exec(`
		INSERT INTO applied_settings (run_id, kind, screen, temperature, brightness, target, phase, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, string(e.Kind), e.Screen, e.Temperature, e.Brightness, target, phase, ts.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append %s entry: %w", e.Kind, err)
	}
	return nil
}

// Recent returns the newest entries first
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, run_id, kind, screen, temperature, brightness, target, phase, timestamp
		FROM applied_settings
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ByRun returns the entries of one run in insertion order
func (l *Ledger) ByRun(runID string) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, run_id, kind, screen, temperature, brightness, target, phase, timestamp
		FROM applied_settings
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UTC().UnixMilli()
	result, err := l.db.Exec(`DELETE FROM applied_settings WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var kind string
		var target sql.NullInt64
		var phase sql.NullString
		var timestamp int64

		err := rows.Scan(
			&entry.ID, &entry.RunID, &kind, &entry.Screen, &entry.Temperature,
			&entry.Brightness, &target, &phase, &timestamp,
		)
		if err != nil {
			return nil, err
		}

		entry.Kind = Kind(kind)
		entry.Timestamp = time.UnixMilli(timestamp).UTC()
		if target.Valid {
			entry.Target = int(target.Int64)
		}
		if phase.Valid {
			entry.Phase = phase.String
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Recorder writes flux events to the ledger. It implements flux.Listener.
type Recorder struct {
	ledger *Ledger
	runID  string
}

// NewRecorder creates a listener that tags entries with runID
func NewRecorder(l *Ledger, runID string) *Recorder {
	return &Recorder{ledger: l, runID: runID}
}

// OnFluxEvent records the event. Failures are logged and never stop the loop.
func (r *Recorder) OnFluxEvent(_ context.Context, ev flux.Event) {
	kind := KindFluxReached
	if ev.Kind == flux.EventStarted {
		kind = KindFluxStarted
	}

	err := r.ledger.Append(Entry{
		RunID:       r.runID,
		Kind:        kind,
		Screen:      AllScreens,
		Temperature: ev.Setting.Temperature,
		Brightness:  ev.Setting.Brightness,
		Target:      ev.Target,
		Phase:       string(ev.Phase),
		Timestamp:   ev.Time,
	})
	if err != nil {
		log.Warn().Err(err).Str("run_id", r.runID).Msg("Failed to record flux event")
	}
}
