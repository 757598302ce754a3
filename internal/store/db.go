// Package store provides SQLite-based run persistence: run metadata,
// checkpoint snapshots and the append-only event log.
// See design doc Section 9.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
)

// DB wraps a SQLite connection for run persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		scenario TEXT NOT NULL,
		tunables_json TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		category TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun registers a run with its seed, scenario name and the full
// tunable set, so a stored run can be replayed exactly.
func (db *DB) CreateRun(runID string, seed int64, scenario string, tun config.Tunables) error {
	tunJSON, err := json.Marshal(tun)
	if err != nil {
		return fmt.Errorf("marshal tunables: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT INTO runs (run_id, seed, scenario, tunables_json) VALUES (?, ?, ?, ?)",
		runID, seed, scenario, string(tunJSON),
	)
	return err
}

// SaveSnapshot checkpoints one tick's world state. The event log is not
// duplicated into the row; events live in their own table.
func (db *DB) SaveSnapshot(runID string, snap state.Snapshot) error {
	trimmed := snap
	trimmed.Events = nil
	data, err := json.Marshal(trimmed)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO snapshots (run_id, tick, data) VALUES (?, ?, ?)",
		runID, snap.Tick, string(data),
	)
	return err
}

// AppendEvents appends one batch of events to the run's log. Sequence
// numbers restart per tick and preserve publish order.
func (db *DB) AppendEvents(runID string, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(
		"INSERT INTO events (run_id, tick, seq, category, kind, payload) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	seq := 0
	lastTick := uint64(0)
	for _, e := range events {
		if e.Tick != lastTick {
			seq = 0
			lastTick = e.Tick
		}
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", e.Kind, err)
		}
		if _, err := stmt.Exec(runID, e.Tick, seq, string(e.Kind.Category()), string(e.Kind), string(payload)); err != nil {
			return fmt.Errorf("insert event tick %d seq %d: %w", e.Tick, seq, err)
		}
		seq++
	}

	return tx.Commit()
}

type eventRow struct {
	Tick    uint64 `db:"tick"`
	Seq     int    `db:"seq"`
	Kind    string `db:"kind"`
	Payload []byte `db:"payload"`
}

// ReadEvents returns the run's events in [fromTick, toTick] in log order.
// Rows whose kind is no longer recognized are logged and skipped rather than
// failing the read.
func (db *DB) ReadEvents(runID string, fromTick, toTick uint64) ([]event.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT tick, seq, kind, payload FROM events WHERE run_id = ? AND tick BETWEEN ? AND ? ORDER BY tick, seq",
		runID, fromTick, toTick,
	)
	if err != nil {
		return nil, err
	}

	events := make([]event.Event, 0, len(rows))
	for _, r := range rows {
		kind := event.Kind(r.Kind)
		payload, err := event.DecodePayload(kind, r.Payload)
		if err != nil {
			slog.Warn("skipping undecodable event row",
				"run_id", runID, "tick", r.Tick, "seq", r.Seq, "kind", r.Kind, "error", err)
			continue
		}
		events = append(events, event.Event{Tick: r.Tick, Kind: kind, Payload: payload})
	}
	return events, nil
}

// RunInfo describes one stored run. CreatedAt is a Unix timestamp.
type RunInfo struct {
	RunID     string `db:"run_id"`
	Seed      int64  `db:"seed"`
	Scenario  string `db:"scenario"`
	CreatedAt int64  `db:"created_at"`
}

// Runs lists every stored run, oldest first.
func (db *DB) Runs() ([]RunInfo, error) {
	var runs []RunInfo
	err := db.conn.Select(&runs,
		"SELECT run_id, seed, scenario, created_at FROM runs ORDER BY created_at, run_id")
	return runs, err
}

// Tunables returns the tunable set a run was started with.
func (db *DB) Tunables(runID string) (config.Tunables, error) {
	var tunJSON string
	if err := db.conn.Get(&tunJSON, "SELECT tunables_json FROM runs WHERE run_id = ?", runID); err != nil {
		return config.Tunables{}, err
	}
	var tun config.Tunables
	if err := json.Unmarshal([]byte(tunJSON), &tun); err != nil {
		return config.Tunables{}, fmt.Errorf("unmarshal tunables: %w", err)
	}
	return tun, nil
}

// LatestTick returns the newest checkpointed tick of a run.
func (db *DB) LatestTick(runID string) (uint64, error) {
	var tick uint64
	err := db.conn.Get(&tick, "SELECT COALESCE(MAX(tick), 0) FROM snapshots WHERE run_id = ?", runID)
	return tick, err
}

// LoadSnapshot restores a checkpoint with its event log reattached from the
// events table.
func (db *DB) LoadSnapshot(runID string, tick uint64) (state.Snapshot, error) {
	var data string
	if err := db.conn.Get(&data, "SELECT data FROM snapshots WHERE run_id = ? AND tick = ?", runID, tick); err != nil {
		return state.Snapshot{}, err
	}
	var snap state.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return state.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	events, err := db.ReadEvents(runID, 0, tick)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("reattach events: %w", err)
	}
	snap.Events = events
	return snap, nil
}
