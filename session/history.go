package session

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/s53zo/synctrack/protocol"
	"github.com/s53zo/synctrack/sqliteutil"
)

// HistoryConfig enables the optional SQLite audit log of editor events
// (SAVE_TRACKS and ACTION commands) received during a session.
type HistoryConfig struct {
	Path            string
	PreflightBudget time.Duration
}

// History is an append-only sink for editor events, used for post-session
// diagnostics (what got saved, what actions fired, and when).
type History struct {
	db *sql.DB
}

// OpenHistory runs a SQLite preflight check against cfg.Path before opening
// it for writes, so a corrupted prior audit log quarantines itself instead
// of stalling every session start.
func OpenHistory(cfg HistoryConfig) (*History, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("session: history path is empty")
	}
	if _, err := sqliteutil.Preflight(cfg.Path, "history", cfg.PreflightBudget, log.Printf); err != nil {
		return nil, fmt.Errorf("session: history preflight: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("session: open history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
	create table if not exists events (
		id integer primary key autoincrement,
		ts integer not null,
		kind text not null,
		detail text not null
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create history schema: %w", err)
	}
	return &History{db: db}, nil
}

// record appends every reportable event in ev as a row. Failures are logged,
// not propagated: a broken audit log must never interrupt playback.
func (h *History) record(ev *protocol.Events) {
	now := time.Now().UnixNano()
	if ev.Save {
		if _, err := h.db.Exec(`insert into events (ts, kind, detail) values (?, 'save', '')`, now); err != nil {
			log.Printf("synctrack: history insert (save): %v", err)
		}
	}
	for _, n := range ev.Actions {
		if _, err := h.db.Exec(`insert into events (ts, kind, detail) values (?, 'action', ?)`, now, fmt.Sprint(n)); err != nil {
			log.Printf("synctrack: history insert (action): %v", err)
		}
	}
}

// Close releases the underlying database handle.
func (h *History) Close() error {
	return h.db.Close()
}
